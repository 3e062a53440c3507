package osmfile

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/cheggaaa/pb/v3/termutil"
	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"

	"github.com/couchcryptid/osm-berlin-etl/internal/domain"
)

// SupportedVersion is the only OSM XML format version accepted.
const SupportedVersion = "0.6"

const (
	readBufferSize = 64 << 10
	headerPeekSize = 4 << 10
)

var (
	// ErrNotOSM is returned when the input does not start with an <osm> element.
	ErrNotOSM = errors.New("input does not appear to be an OSM XML file")
	// ErrUnsupportedVersion is returned for any OSM format other than 0.6.
	ErrUnsupportedVersion = errors.New("unknown version of the OSM format")
)

var (
	bzip2Magic = []byte("BZh")
	gzipMagic  = []byte{0x1f, 0x8b}
)

// Header holds the attributes of the root <osm> element.
type Header struct {
	Version   string
	Generator string
}

// Option configures a Source.
type Option func(*options)

type options struct {
	progress    io.Writer
	readObserve func(n int)
}

// WithProgress renders a byte progress bar for file sources to w.
func WithProgress(w io.Writer) Option {
	return func(o *options) { o.progress = w }
}

// WithReadObserver is called with the number of raw input bytes after every read.
func WithReadObserver(fn func(n int)) Option {
	return func(o *options) { o.readObserve = fn }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Source streams OSM elements from a plain, bzip2 or gzip XML extract.
// It implements pipeline.BatchExtractor.
type Source struct {
	header  Header
	scanner *osmxml.Scanner
	bar     *pb.ProgressBar
	closers []io.Closer
}

// Open opens an extract on disk. Compression is detected from the content,
// not the file name.
func Open(ctx context.Context, path string, opts ...Option) (*Source, error) {
	o := applyOptions(opts)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open osm file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat osm file: %w", err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("open osm file: %s is not a regular file", path)
	}

	var r io.Reader = f
	var bar *pb.ProgressBar
	if o.progress != nil {
		bar = newProgressBar(o.progress, info.Size())
		r = bar.NewProxyReader(f)
	}

	s, err := newSource(ctx, r, o)
	if err != nil {
		if bar != nil {
			bar.Finish()
		}
		f.Close()
		return nil, err
	}
	s.bar = bar
	s.closers = append(s.closers, f)
	return s, nil
}

// NewReader streams elements from r, e.g. standard input.
func NewReader(ctx context.Context, r io.Reader, opts ...Option) (*Source, error) {
	return newSource(ctx, r, applyOptions(opts))
}

func newSource(ctx context.Context, r io.Reader, o options) (*Source, error) {
	if o.readObserve != nil {
		r = &observedReader{r: r, observe: o.readObserve}
	}

	plain, closer, err := decompress(r)
	if err != nil {
		return nil, err
	}

	header, br, err := readHeader(plain)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}

	s := &Source{
		header:  header,
		scanner: osmxml.New(ctx, br),
	}
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
	return s, nil
}

// Header returns the root element attributes.
func (s *Source) Header() Header {
	return s.header
}

// Next returns the next decoded object, including non-element objects such
// as bounds. It returns io.EOF at the end of the stream.
func (s *Source) Next() (osm.Object, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, fmt.Errorf("scan osm: %w", err)
		}
		return nil, io.EOF
	}
	return s.scanner.Object(), nil
}

// ExtractBatch reads up to batchSize nodes, ways and relations. At the end of
// the stream it returns the remaining elements together with io.EOF.
func (s *Source) ExtractBatch(ctx context.Context, batchSize int) ([]domain.Element, error) {
	batch := make([]domain.Element, 0, batchSize)
	for len(batch) < batchSize {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		obj, err := s.Next()
		if err != nil {
			return batch, err
		}
		if el, ok := ToElement(obj); ok {
			batch = append(batch, el)
		}
	}
	return batch, nil
}

// Close stops the scanner and releases the underlying readers.
func (s *Source) Close() error {
	errs := []error{s.scanner.Close()}
	if s.bar != nil {
		s.bar.Finish()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	return errors.Join(errs...)
}

// ToElement converts a node, way or relation. Other objects report false.
func ToElement(obj osm.Object) (domain.Element, bool) {
	switch v := obj.(type) {
	case *osm.Node:
		return domain.Element{
			Type:      domain.TypeNode,
			ID:        int64(v.ID),
			Timestamp: v.Timestamp,
			User:      v.User,
			UserID:    int64(v.UserID),
			Lat:       v.Lat,
			Lon:       v.Lon,
			Tags:      toTags(v.Tags),
		}, true
	case *osm.Way:
		nodes := make([]int64, len(v.Nodes))
		for i, n := range v.Nodes {
			nodes[i] = int64(n.ID)
		}
		return domain.Element{
			Type:      domain.TypeWay,
			ID:        int64(v.ID),
			Timestamp: v.Timestamp,
			User:      v.User,
			UserID:    int64(v.UserID),
			Nodes:     nodes,
			Tags:      toTags(v.Tags),
		}, true
	case *osm.Relation:
		members := make([]domain.Member, len(v.Members))
		for i, m := range v.Members {
			members[i] = domain.Member{Type: string(m.Type), Ref: m.Ref, Role: m.Role}
		}
		return domain.Element{
			Type:      domain.TypeRelation,
			ID:        int64(v.ID),
			Timestamp: v.Timestamp,
			User:      v.User,
			UserID:    int64(v.UserID),
			Members:   members,
			Tags:      toTags(v.Tags),
		}, true
	default:
		return domain.Element{}, false
	}
}

func toTags(tags osm.Tags) []domain.Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]domain.Tag, len(tags))
	for i, t := range tags {
		out[i] = domain.Tag{Key: t.Key, Value: t.Value}
	}
	return out
}

// decompress sniffs the magic bytes and wraps r accordingly. The returned
// closer is nil when nothing needs closing.
func decompress(r io.Reader) (io.Reader, io.Closer, error) {
	br := bufio.NewReaderSize(r, readBufferSize)
	magic, err := br.Peek(len(bzip2Magic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("read osm input: %w", err)
	}

	switch {
	case bytes.HasPrefix(magic, bzip2Magic):
		return bzip2.NewReader(br), nil, nil
	case bytes.HasPrefix(magic, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrNotOSM, err)
		}
		return gz, gz, nil
	default:
		return br, nil, nil
	}
}

// readHeader checks the root element without consuming it; the returned
// reader still starts at the beginning of the document.
func readHeader(r io.Reader) (Header, *bufio.Reader, error) {
	br := bufio.NewReaderSize(r, readBufferSize)
	peek, err := br.Peek(headerPeekSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return Header{}, nil, fmt.Errorf("%w: %w", ErrNotOSM, err)
	}

	dec := xml.NewDecoder(bytes.NewReader(peek))
	for {
		tok, err := dec.Token()
		if err != nil {
			return Header{}, nil, fmt.Errorf("%w: %w", ErrNotOSM, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != "osm" {
			return Header{}, nil, fmt.Errorf("%w: root element is <%s>", ErrNotOSM, se.Name.Local)
		}

		var h Header
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "version":
				h.Version = attr.Value
			case "generator":
				h.Generator = attr.Value
			}
		}
		if h.Version != SupportedVersion {
			return Header{}, nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, h.Version)
		}
		return h, br, nil
	}
}

func newProgressBar(w io.Writer, total int64) *pb.ProgressBar {
	bar := pb.New64(total)
	bar.Set(pb.Bytes, true)
	bar.SetWriter(w)
	bar.SetRefreshRate(time.Second)
	if width, err := termutil.TerminalWidth(); width == 0 || err != nil {
		bar.SetTemplateString(`{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}` + "\n")
	}
	return bar.Start()
}

type observedReader struct {
	r       io.Reader
	observe func(n int)
}

func (o *observedReader) Read(p []byte) (int, error) {
	n, err := o.r.Read(p)
	if n > 0 {
		o.observe(n)
	}
	return n, err
}
