package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vsariola/groove"
	"github.com/vsariola/groove/cmd"
	"github.com/vsariola/groove/engine"
	"github.com/vsariola/groove/entities"
	"github.com/vsariola/groove/oto"
	"github.com/vsariola/groove/player"
	"github.com/vsariola/groove/remote"
	"github.com/vsariola/groove/version"
	"gitlab.com/gomidi/midi/v2"
	"golang.org/x/sync/errgroup"
)

const blockFrames = 1024

var errFinished = errors.New("end of timeline")

var (
	verbose bool
	logger  *slog.Logger

	renderOpts struct {
		output  string
		raw     bool
		pcm16   bool
		bits    int
		seconds float64
		note    int
		channel int
		listen  bool
	}

	playOpts struct {
		midiIn  string
		addr    string
		pcm16   bool
		noAudio bool
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "groove",
	Short: "Render and play groove projects",
	Long: `groove renders projects of instruments, effects and controllers
patched into graphs, to audio files or to the sound card.`,
	Version:      version.VersionOrHash,
	SilenceUsage: true,
	PersistentPreRun: func(c *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
}

var renderCmd = &cobra.Command{
	Use:   "render project.yml",
	Short: "Render a project to a .wav or .raw file",
	Long: `Render a project offline. Endless projects are rendered for the
number of seconds given with --seconds.

Examples:
  groove render song.yml
  groove render song.yml -o out.raw --raw --pcm16
  groove render arp.yml --note 57 --seconds 4 --listen`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var playCmd = &cobra.Command{
	Use:   "play project.yml",
	Short: "Play a project on the sound card",
	Long: `Play a project in real time. MIDI from the input given with
--midi-in is routed into the project while it plays.`,
	Args: cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error { return runPlay(c.Context(), args[0], false) },
}

var serveCmd = &cobra.Command{
	Use:   "serve project.yml",
	Short: "Play a project and control it over HTTP",
	Long: `Play a project and keep running after the end of the timeline,
taking MIDI notes and parameter changes over HTTP.

Example:
  groove serve song.yml --addr :8080`,
	Args: cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error { return runPlay(c.Context(), args[0], true) },
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List MIDI inputs and device kinds",
	RunE:  runDevices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	renderCmd.Flags().StringVarP(&renderOpts.output, "output", "o", "", "Output file (default: project name with .wav or .raw)")
	renderCmd.Flags().BoolVarP(&renderOpts.raw, "raw", "r", false, "Write headerless .raw instead of .wav")
	renderCmd.Flags().BoolVarP(&renderOpts.pcm16, "pcm16", "c", false, "Write 16-bit integers to .raw instead of float32")
	renderCmd.Flags().IntVar(&renderOpts.bits, "bits", 16, "Bit depth of .wav output (16 or 24)")
	renderCmd.Flags().Float64VarP(&renderOpts.seconds, "seconds", "s", 10, "Length of the render when the project is endless")
	renderCmd.Flags().IntVar(&renderOpts.note, "note", -1, "Key to hold from the start, e.g. to drive an arpeggiator")
	renderCmd.Flags().IntVar(&renderOpts.channel, "channel", 0, "MIDI channel of --note")
	renderCmd.Flags().BoolVarP(&renderOpts.listen, "listen", "p", false, "Play the rendered audio after writing it")

	for _, c := range []*cobra.Command{playCmd, serveCmd} {
		c.Flags().StringVar(&playOpts.midiIn, "midi-in", "", "Open the first MIDI input whose name starts with this")
		c.Flags().BoolVar(&playOpts.pcm16, "pcm16", false, "Feed the sound card 16-bit integers instead of float32")
	}
	serveCmd.Flags().StringVar(&playOpts.addr, "addr", ":8080", "Address of the HTTP remote")
	serveCmd.Flags().BoolVar(&playOpts.noAudio, "no-audio", false, "Run without a sound card, pacing blocks with a timer")

	rootCmd.AddCommand(renderCmd, playCmd, serveCmd, devicesCmd)
}

func loadProject(path string) (*engine.Mix, *groove.Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open project: %w", err)
	}
	defer f.Close()
	p, err := engine.ReadProject(f)
	if err != nil {
		return nil, nil, err
	}
	// sample paths are relative to the project file
	dir := filepath.Dir(path)
	for i := range p.Tracks {
		for j := range p.Tracks[i].Devices {
			for k, file := range p.Tracks[i].Devices[j].Files {
				if !filepath.IsAbs(file) {
					p.Tracks[i].Devices[j].Files[k] = filepath.Join(dir, file)
				}
			}
		}
	}
	m, err := engine.Load(p, entities.Factory{})
	if err != nil {
		return nil, nil, fmt.Errorf("could not load %v: %w", path, err)
	}
	logger.Debug("project loaded", "path", path, "tracks", m.NumTracks(), "samplerate", m.SampleRate())
	return m, p, nil
}

func runRender(c *cobra.Command, args []string) error {
	m, p, err := loadProject(args[0])
	if err != nil {
		return err
	}
	if renderOpts.note >= 0 {
		ch := uint8(renderOpts.channel & 15)
		if err := m.RouteMIDI(groove.Channel(ch), midi.NoteOn(ch, uint8(renderOpts.note&127), 100)); err != nil {
			logger.Warn("routing --note failed", "err", err)
		}
	}
	maxFrames := int(renderOpts.seconds * float64(m.SampleRate()))
	if p.Length > 0 {
		maxFrames = int(p.Length * float64(m.SampleRate()))
	}
	start := time.Now()
	buffer, err := groove.Play(m, maxFrames, blockFrames)
	if err != nil {
		logger.Warn("render", "err", err)
	}
	logger.Info("rendered", "frames", buffer.Frames(), "took", time.Since(start))

	out := renderOpts.output
	if out == "" {
		ext := ".wav"
		if renderOpts.raw {
			ext = ".raw"
		}
		out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ext
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("could not create output: %w", err)
	}
	if renderOpts.raw || filepath.Ext(out) == ".raw" {
		err = groove.Raw(f, buffer, renderOpts.pcm16)
	} else {
		err = groove.WAV(f, buffer, m.SampleRate(), renderOpts.bits)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("could not write %v: %w", out, err)
	}
	logger.Info("wrote", "path", out)

	if renderOpts.listen {
		audioContext, err := oto.NewContext(m.SampleRate(), false)
		if err != nil {
			return err
		}
		defer audioContext.Close()
		output := audioContext.Output()
		if err := output.WriteAudio(buffer); err != nil {
			output.Close()
			return err
		}
		return output.Close()
	}
	return nil
}

func runPlay(ctx context.Context, path string, serve bool) error {
	m, _, err := loadProject(path)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	midiContext := cmd.NewMidiContext(m.SampleRate())
	defer midiContext.Close()
	if playOpts.midiIn != "" {
		if in, ok := player.OpenInput(midiContext, playOpts.midiIn); ok {
			logger.Info("MIDI input opened", "device", in.String())
		} else {
			logger.Warn("could not open MIDI input", "prefix", playOpts.midiIn, "support", midiContext.Support())
		}
	}

	broker := player.NewBroker()
	p := player.NewPlayer(broker, m, logger)
	broker.ToPlayer <- player.PlayMsg{Playing: true}

	if serve && playOpts.noAudio {
		go p.Run(blockFrames, m.SampleRate(), midiContext)
		defer func() {
			player.TrySend(broker.ClosePlayer, struct{}{})
			select {
			case <-broker.FinishedPlayer:
			case <-time.After(3 * time.Second):
				logger.Warn("player did not finish in time")
			}
		}()
	} else {
		audioContext, err := oto.NewContext(m.SampleRate(), playOpts.pcm16)
		if err != nil {
			return err
		}
		defer audioContext.Close()
		stream := audioContext.Play(func(buf groove.AudioBuffer) { p.Process(buf, midiContext) })
		defer stream.Close()
	}

	g, ctx := errgroup.WithContext(ctx)
	if serve {
		r := remote.New(broker, logger, time.Second)
		g.Go(func() error { return r.Run(ctx, playOpts.addr) })
	}
	g.Go(func() error { return monitor(ctx, broker, serve) })
	if err := g.Wait(); !errors.Is(err, errFinished) {
		return err
	}
	return nil
}

// monitor consumes what the player publishes. Without a remote, the end of
// the timeline ends the program.
func monitor(ctx context.Context, broker *player.Broker, serve bool) error {
	var last player.Level
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-broker.FromPlayer:
			if buf, ok := msg.Data.(*groove.AudioBuffer); ok {
				broker.PutAudioBuffer(buf)
			}
			if msg.Dropped > 0 {
				logger.Debug("blocks dropped", "count", msg.Dropped)
			}
			if msg.Err != nil {
				logger.Warn("player", "frame", msg.Frame, "err", msg.Err)
			}
			if msg.Level != last {
				last = msg.Level
				logger.Debug("level", "peak", last.Peak, "rms", last.RMS)
			}
			if !msg.Playing && !serve {
				logger.Info("finished", "frames", msg.Frame)
				return errFinished
			}
		}
	}
}

func runDevices(c *cobra.Command, args []string) error {
	midiContext := cmd.NewMidiContext(groove.DefaultSampleRate)
	defer midiContext.Close()
	fmt.Printf("MIDI support: %v\n", midiContext.Support())
	for in := range midiContext.Inputs {
		fmt.Printf("  input: %v\n", in)
	}
	fmt.Println("device kinds:")
	for _, kind := range entities.Kinds() {
		fmt.Printf("  %v\n", kind)
	}
	return nil
}
