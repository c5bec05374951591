// Package nnue holds the quantized evaluation network and the per-ply
// accumulator stack that keeps it in sync with the search.
package nnue

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"lukechampine.com/frand"
)

const (
	InputSize     = 768
	HiddenSize    = 256
	OutputBuckets = 8

	QA    = 255
	QB    = 64
	Scale = 400

	// Trailing elements tolerated for alignment padding.
	sizeTolerance = 16
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Network is the immutable weight set. Feature weights are stored one row of
// HiddenSize per input feature so an update touches a contiguous slice.
type Network struct {
	FeatureWeights [InputSize][HiddenSize]int16
	FeatureBias    [HiddenSize]int16
	// Per bucket: HiddenSize weights for the side to move, then HiddenSize for the other side.
	OutputWeights [OutputBuckets][2 * HiddenSize]int16
	OutputBias    [OutputBuckets]int16
}

// ElementCount is the number of int16 values in a serialized network.
func ElementCount() int {
	return InputSize*HiddenSize + HiddenSize + OutputBuckets*2*HiddenSize + OutputBuckets
}

// LoadNetwork reads a network file, raw or zstd-compressed.
func LoadNetwork(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open network")
	}
	defer f.Close()

	net, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load network %s", path)
	}
	return net, nil
}

// Read decodes a network from r. Fewer elements than expected, or more than a
// few padding elements beyond, is an error.
func Read(r io.Reader) (*Network, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(len(zstdMagic)); err == nil && bytes.Equal(magic, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "zstd reader")
		}
		defer dec.Close()
		return decode(dec)
	}
	return decode(br)
}

func decode(r io.Reader) (*Network, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read network")
	}
	if len(raw)%2 != 0 {
		return nil, errors.Errorf("network has odd byte length %d", len(raw))
	}
	got, want := len(raw)/2, ElementCount()
	if got < want || got-want >= sizeTolerance {
		return nil, errors.Errorf("network has %d elements, expected %d", got, want)
	}

	net := &Network{}
	pos := 0
	next := func() int16 {
		v := int16(binary.LittleEndian.Uint16(raw[pos:]))
		pos += 2
		return v
	}
	for f := range net.FeatureWeights {
		for i := range net.FeatureWeights[f] {
			net.FeatureWeights[f][i] = next()
		}
	}
	for i := range net.FeatureBias {
		net.FeatureBias[i] = next()
	}
	for b := range net.OutputWeights {
		for i := range net.OutputWeights[b] {
			net.OutputWeights[b][i] = next()
		}
	}
	for b := range net.OutputBias {
		net.OutputBias[b] = next()
	}
	return net, nil
}

// Write serializes the network in the raw file layout.
func (n *Network) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for f := range n.FeatureWeights {
		if err := binary.Write(bw, binary.LittleEndian, n.FeatureWeights[f][:]); err != nil {
			return errors.Wrap(err, "write feature weights")
		}
	}
	if err := binary.Write(bw, binary.LittleEndian, n.FeatureBias[:]); err != nil {
		return errors.Wrap(err, "write feature bias")
	}
	for b := range n.OutputWeights {
		if err := binary.Write(bw, binary.LittleEndian, n.OutputWeights[b][:]); err != nil {
			return errors.Wrap(err, "write output weights")
		}
	}
	if err := binary.Write(bw, binary.LittleEndian, n.OutputBias[:]); err != nil {
		return errors.Wrap(err, "write output bias")
	}
	return bw.Flush()
}

// NewRandomNetwork builds a small-weight network from seed, the same seed
// always giving the same weights.
func NewRandomNetwork(seed uint64) *Network {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	rng := frand.NewCustom(key[:], 1024, 12)
	small := func(span int) int16 {
		return int16(rng.Intn(2*span+1) - span)
	}

	net := &Network{}
	for f := range net.FeatureWeights {
		for i := range net.FeatureWeights[f] {
			net.FeatureWeights[f][i] = small(16)
		}
	}
	for i := range net.FeatureBias {
		net.FeatureBias[i] = small(32)
	}
	for b := range net.OutputWeights {
		for i := range net.OutputWeights[b] {
			net.OutputWeights[b][i] = small(32)
		}
	}
	for b := range net.OutputBias {
		net.OutputBias[b] = small(64)
	}
	return net
}
