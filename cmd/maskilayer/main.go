// Command maskilayer composites two images through grayscale blend
// masks. Any number of positive and negative (inverted) masks are
// averaged into a single blend mask, optionally contrast-normalized,
// and a mask can also be derived from the overlay itself.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/twardoch/maskilayer"
	"github.com/twardoch/maskilayer/automask"
	"github.com/twardoch/maskilayer/imgio"
)

func main() {
	cfg := defaultConfig()
	configPath := flag.String("config", "", "YAML job file; explicit flags override its values")
	flag.StringVar(&cfg.Back, "back", cfg.Back, "background image path")
	flag.StringVar(&cfg.Comp, "comp", cfg.Comp, "overlay image path")
	flag.StringVar(&cfg.Out, "out", cfg.Out, "output composite path")
	flag.StringVar(&cfg.Smask, "smask", cfg.Smask, "also save the final blend mask to this path")
	flag.StringVar(&cfg.Masks, "masks", cfg.Masks, "mask image paths, separated by ; or ,")
	flag.StringVar(&cfg.IMasks, "imasks", cfg.IMasks, "negative mask image paths, separated by ; or ,")
	flag.IntVar(&cfg.Norm, "norm", cfg.Norm, "mask normalization level, 0 (off) to 5")
	flag.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log progress")
	flag.BoolVar(&cfg.Fast, "fast", cfg.Fast, "skip PNG compression for faster writes")
	flag.StringVar(&cfg.Automask, "automask", cfg.Automask,
		"derive an extra mask from the overlay: luminance, alpha, background or cluster")
	flag.IntVar(&cfg.Clusters, "clusters", cfg.Clusters, "color cluster count for -automask cluster")
	flag.Float64Var(&cfg.Tolerance, "tolerance", cfg.Tolerance, "background color tolerance for -automask background")
	flag.Float64Var(&cfg.Feather, "feather", cfg.Feather, "blur sigma for the derived mask")
	flag.Parse()

	if *configPath != "" {
		fileCfg, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		set := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		cfg = mergeConfig(fileCfg, cfg, set)
	}

	log := newLogger(cfg.Verbose)
	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("compositing failed")
		os.Exit(1)
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func run(cfg Config, log zerolog.Logger) error {
	if cfg.Back == "" || cfg.Comp == "" || cfg.Out == "" {
		return fmt.Errorf("need -back, -comp and -out")
	}

	log.Info().Str("path", cfg.Back).Msg("opening background")
	bg, err := imgio.LoadLayer(cfg.Back)
	if err != nil {
		return err
	}
	log.Info().Str("path", cfg.Comp).Msg("opening overlay")
	overlay, err := imgio.LoadLayer(cfg.Comp)
	if err != nil {
		return err
	}

	masks, err := loadMasks(cfg.Masks, log)
	if err != nil {
		return err
	}
	invMasks, err := loadMasks(cfg.IMasks, log)
	if err != nil {
		return err
	}

	if cfg.Automask != "" {
		method, err := automask.ParseMethod(cfg.Automask)
		if err != nil {
			return err
		}
		opts := automask.DefaultOptions()
		opts.Method = method
		opts.Clusters = cfg.Clusters
		opts.Tolerance = cfg.Tolerance
		opts.Feather = cfg.Feather
		log.Info().Stringer("method", method).Msg("deriving mask from overlay")
		derived, err := automask.Generate(maskilayer.LayerImage(overlay), opts)
		if err != nil {
			return err
		}
		masks = append(masks, maskilayer.MaskFromImage(derived))
	}

	comp := maskilayer.New(log)
	composite, final, err := comp.Compose(bg, overlay, masks, invMasks, cfg.Norm)
	if err != nil {
		return err
	}

	var writes []imgio.WriteRequest
	if cfg.Smask != "" {
		writes = append(writes, imgio.WriteRequest{Image: maskilayer.MaskImage(final), Path: cfg.Smask})
	}
	writes = append(writes, imgio.WriteRequest{Image: maskilayer.LayerImage(composite), Path: cfg.Out})
	log.Info().Int("files", len(writes)).Msg("writing output")
	if err := imgio.WriteAll(writes, cfg.Fast); err != nil {
		return err
	}
	log.Info().Str("path", cfg.Out).Msg("composite written")
	return nil
}

func loadMasks(list string, log zerolog.Logger) ([]*mat.Dense, error) {
	paths, missing := imgio.ExistingFiles(imgio.SplitList(list))
	for _, p := range missing {
		log.Warn().Str("path", p).Msg("skipping mask, not a file")
	}
	masks := make([]*mat.Dense, 0, len(paths))
	for _, p := range paths {
		log.Info().Str("path", p).Msg("opening mask")
		m, err := imgio.LoadMask(p)
		if err != nil {
			return nil, err
		}
		masks = append(masks, m)
	}
	return masks, nil
}
