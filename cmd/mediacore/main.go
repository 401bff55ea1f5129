// Command mediacore demuxes and decodes one or more media files through the
// core pipeline: register the demuxers and decoders, open each source,
// route packets to per-stream decoders, and report what was decoded. Each
// input runs as its own independent pipeline.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mediaframe/core/codec"
	"github.com/mediaframe/core/codec/aac"
	"github.com/mediaframe/core/codec/h263"
	"github.com/mediaframe/core/demux"
	"github.com/mediaframe/core/demux/avi"
	"github.com/mediaframe/core/demux/realmedia"
	"github.com/mediaframe/core/frame"
	"github.com/mediaframe/core/mediaerr"
	"github.com/mediaframe/core/reorder"
)

var version = "dev"

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <file.avi|file.rm> ...\n", os.Args[0])
		os.Exit(2)
	}

	demuxers := demux.NewRegistry()
	avi.Register(demuxers)
	realmedia.Register(demuxers)

	decoders := codec.NewRegistry()
	h263.Register(decoders)
	aac.Register(decoders)

	slog.Info("mediacore starting",
		"version", version,
		"demuxers", strings.Join(demuxers.Names(), ","),
		"decoders", strings.Join(decoders.Names(), ","),
	)

	var g errgroup.Group
	for _, path := range os.Args[1:] {
		path := path
		g.Go(func() error {
			return runPipeline(demuxers, decoders, path)
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}

// containerFor guesses the demuxer name from the file extension.
func containerFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".avi":
		return "avi", nil
	case ".rm", ".rmvb", ".ra":
		return "realmedia", nil
	default:
		return "", fmt.Errorf("no demuxer for %q", path)
	}
}

// pipelineStream is the per-stream decoding state of one pipeline.
type pipelineStream struct {
	dec     codec.Decoder
	sup     *codec.Support
	reord   reorder.Reorderer
	frames  int
	skipped bool
}

func runPipeline(demuxers *demux.Registry, decoders *codec.Registry, path string) error {
	log := slog.Default().With("component", "pipeline", "file", filepath.Base(path))

	name, err := containerFor(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	dmx, err := demux.Open(demuxers, name, data)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	streams := make(map[uint32]*pipelineStream)
	for _, s := range dmx.Streams().Streams() {
		ps := &pipelineStream{sup: codec.NewSupport()}
		dec, err := decoders.Create(s.Info.Name)
		if err != nil {
			log.Warn("no decoder, stream will be skipped", "codec", s.Info.Name, "stream", s.ID)
			ps.skipped = true
			streams[s.ID] = ps
			continue
		}
		if err := dec.Init(ps.sup, s.Info); err != nil {
			return fmt.Errorf("initializing %s decoder: %w", s.Info.Name, err)
		}
		ps.dec = dec
		if s.MediaType == frame.MediaVideo {
			ps.reord = reorder.NewIPB(4)
		} else {
			ps.reord = reorder.NewNone()
		}
		streams[s.ID] = ps
		log.Info("stream ready", "stream", s.ID, "codec", s.Info.Name, "type", s.MediaType.String())
	}

	packets := 0
	for {
		pkt, err := dmx.NextPacket()
		if errors.Is(err, mediaerr.ErrEOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("demuxing %s: %w", path, err)
		}
		packets++
		ps := streams[pkt.Stream.ID]
		if ps == nil || ps.skipped {
			continue
		}

		fr, err := ps.dec.Decode(ps.sup, &pkt)
		switch {
		case errors.Is(err, mediaerr.ErrNoFrame):
			continue
		case errors.Is(err, mediaerr.ErrMissingReference):
			log.Debug("skipping frame before first reference", "stream", pkt.Stream.ID)
			continue
		case err != nil:
			log.Warn("decode error, flushing", "stream", pkt.Stream.ID, "error", err)
			ps.dec.Flush()
			ps.reord.Flush()
			continue
		}

		ps.reord.Add(fr)
		for {
			if _, ok := ps.reord.Get(); !ok {
				break
			}
			ps.frames++
		}
	}

	for id, ps := range streams {
		if ps.reord == nil {
			continue
		}
		for {
			if _, ok := ps.reord.Last(); !ok {
				break
			}
			ps.frames++
		}
		log.Info("stream finished", "stream", id, "frames", ps.frames)
	}
	log.Info("pipeline finished", "packets", packets)
	return nil
}
