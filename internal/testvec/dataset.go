package testvec

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

const (
	imageMagic = 0x00000803
	labelMagic = 0x00000801

	// DefaultPixelScale divides raw bytes so 255 maps to 255/256, the values
	// carried by the pickled MNIST distribution.
	DefaultPixelScale = 256
)

// Dataset is a random-access sequence of labeled images.
type Dataset interface {
	Len() int
	Image(i int) (LabeledImage, error)
}

// SliceDataset is an in-memory dataset.
type SliceDataset []LabeledImage

func (s SliceDataset) Len() int { return len(s) }

func (s SliceDataset) Image(i int) (LabeledImage, error) {
	if i < 0 || i >= len(s) {
		return LabeledImage{}, fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidDataset, i, len(s))
	}
	return s[i], nil
}

// JSONDataset is a dataset decoded from a JSON array of {"pixels", "label"}.
type JSONDataset struct {
	SliceDataset
}

func DecodeJSON(r io.Reader) (*JSONDataset, error) {
	var images []LabeledImage
	if err := json.NewDecoder(r).Decode(&images); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	return &JSONDataset{SliceDataset: images}, nil
}

func OpenJSON(path string) (*JSONDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds, err := DecodeJSON(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

type imageFileHeader struct {
	Magic     int32
	NumImages int32
	Height    int32
	Width     int32
}

type labelFileHeader struct {
	Magic     int32
	NumLabels int32
}

// IDXDataset reads an IDX image file and its label file, gzip-compressed or raw.
type IDXDataset struct {
	pixels []byte
	labels []byte
	size   int
	scale  float64
}

// OpenIDX loads an image/label file pair. Pixels are byte/scale; scale <= 0
// selects DefaultPixelScale.
func OpenIDX(imagesPath, labelsPath string, scale float64) (*IDXDataset, error) {
	images, err := readIDX(imagesPath)
	if err != nil {
		return nil, err
	}
	labels, err := readIDX(labelsPath)
	if err != nil {
		return nil, err
	}
	return ParseIDX(images, labels, scale)
}

// ParseIDX decodes uncompressed IDX image and label payloads.
func ParseIDX(images, labels []byte, scale float64) (*IDXDataset, error) {
	if scale <= 0 {
		scale = DefaultPixelScale
	}
	var ih imageFileHeader
	if err := binary.Read(bytes.NewReader(images), binary.BigEndian, &ih); err != nil {
		return nil, fmt.Errorf("%w: image header: %v", ErrInvalidDataset, err)
	}
	if ih.Magic != imageMagic || ih.Width != ImageWidth || ih.Height != ImageHeight || ih.NumImages < 0 {
		return nil, fmt.Errorf("%w: image header magic=%#x %dx%d", ErrInvalidDataset, ih.Magic, ih.Height, ih.Width)
	}
	var lh labelFileHeader
	if err := binary.Read(bytes.NewReader(labels), binary.BigEndian, &lh); err != nil {
		return nil, fmt.Errorf("%w: label header: %v", ErrInvalidDataset, err)
	}
	if lh.Magic != labelMagic {
		return nil, fmt.Errorf("%w: label header magic=%#x", ErrInvalidDataset, lh.Magic)
	}
	if lh.NumLabels != ih.NumImages {
		return nil, fmt.Errorf("%w: %d images but %d labels", ErrInvalidDataset, ih.NumImages, lh.NumLabels)
	}

	n := int(ih.NumImages)
	pixels := images[binary.Size(ih):]
	lbls := labels[binary.Size(lh):]
	if len(pixels) < n*ImagePixels || len(lbls) < n {
		return nil, fmt.Errorf("%w: truncated payload for %d images", ErrInvalidDataset, n)
	}
	return &IDXDataset{
		pixels: pixels[:n*ImagePixels],
		labels: lbls[:n],
		size:   n,
		scale:  scale,
	}, nil
}

func (d *IDXDataset) Len() int { return d.size }

func (d *IDXDataset) Image(i int) (LabeledImage, error) {
	if i < 0 || i >= d.size {
		return LabeledImage{}, fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidDataset, i, d.size)
	}
	raw := d.pixels[i*ImagePixels : (i+1)*ImagePixels]
	pixels := make([]float64, ImagePixels)
	for j, b := range raw {
		pixels[j] = float64(b) / d.scale
	}
	return LabeledImage{Pixels: pixels, Label: int(d.labels[i])}, nil
}

func readIDX(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
