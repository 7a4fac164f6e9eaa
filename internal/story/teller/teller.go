package teller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"storyteller/internal/cli/scheme/colours"
	"storyteller/internal/config"
	"storyteller/internal/domain/category"
	"storyteller/internal/domain/story"
	"storyteller/internal/story/export"
	"storyteller/internal/story/tts"
)

// Generator produces a story for a request.
type Generator interface {
	Generate(ctx context.Context, req story.Request) (*story.Result, error)
}

// Storyteller main application structure. Its methods are cobra Run funcs.
type Storyteller struct {
	cfg       *config.Config
	generator Generator
	Reader    *tts.Reader
	engine    tts.Engine
	exporter  *export.Exporter
	state     State

	in  *bufio.Reader
	out io.Writer

	ctx    context.Context
	Cancel context.CancelFunc
}

type Option func(*Storyteller)

func WithIO(in io.Reader, out io.Writer) Option {
	return func(st *Storyteller) {
		st.in = bufio.NewReader(in)
		st.out = out
	}
}

func WithExporter(e *export.Exporter) Option {
	return func(st *Storyteller) {
		st.exporter = e
	}
}

// New builds the app. A nil engine means speech is unavailable and the read
// aloud controls are hidden.
func New(cfg *config.Config, gen Generator, engine tts.Engine, opts ...Option) *Storyteller {
	ctx, cancel := context.WithCancel(context.Background())
	st := &Storyteller{
		cfg:       cfg,
		generator: gen,
		Reader:    tts.NewReader(engine),
		engine:    engine,
		exporter:  export.NewExporter(nil),
		in:        bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		ctx:       ctx,
		Cancel:    cancel,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Close stops playback and cancels anything in flight.
func (st *Storyteller) Close() {
	st.Reader.Close()
	st.Cancel()
}

// RegisterTellFlags adds the flags Tell reads.
func RegisterTellFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("category", "c", category.Default().ID, "Story category (id or name, see 'categories')")
	cmd.Flags().Bool("export", false, "Export the story to PDF")
	cmd.Flags().String("image-out", "", "Save the illustration to this path")
	cmd.Flags().Bool("no-speak", false, "Don't read the story aloud automatically")
	cmd.Flags().StringP("voice", "v", "", "Optional voice to use for reading. See 'voices' for options")
}

var icons = map[category.Icon]string{
	category.IconFolkTales:  "📖",
	category.IconHistory:    "🏛️",
	category.IconTraditions: "🎎",
	category.IconMythology:  "🐉",
	category.IconHeroes:     "🦸",
	category.IconFestivals:  "🎉",
}

func icon(c category.Category) string {
	if s, ok := icons[c.Icon]; ok {
		return s
	}
	return "✨"
}

var navigation = []struct {
	icon, label, hint string
}{
	{"🏠", "Dashboard", "storyteller"},
	{"📜", "Storyteller", "storyteller tell <prompt>"},
	{"🌍", "Cultures", "storyteller categories"},
	{"📚", "My Stories", "storyteller tell --export"},
	{"⚙️", "Settings", "storyteller settings"},
}

func (st *Storyteller) ShowWelcome() {
	fmt.Fprintln(st.out)
	colours.Title.Fprintln(st.out, "🌍 Welcome to the Cultural Storyteller! 🌍")
	colours.Muted.Fprintln(st.out, "Stories, traditions and legends from around the world")
	fmt.Fprintln(st.out)
	for _, item := range navigation {
		fmt.Fprintf(st.out, "  %s ", item.icon)
		colours.Info.Fprintf(st.out, "%-12s", item.label)
		colours.Muted.Fprintf(st.out, " %s\n", item.hint)
	}
	fmt.Fprintln(st.out)
}

func (st *Storyteller) ListCategories(cmd *cobra.Command, args []string) {
	fmt.Fprintln(st.out)
	colours.Title.Fprintln(st.out, "🌍 Story Categories 🌍")
	fmt.Fprintln(st.out)

	for i, c := range category.All() {
		fmt.Fprintf(st.out, "  %d. %s ", i+1, icon(c))
		colours.Title.Fprint(st.out, c.Name)
		colours.Muted.Fprintf(st.out, " (%s)\n", c.ID)
		fmt.Fprintf(st.out, "     💡 %s\n", c.Description)
	}
	fmt.Fprintln(st.out)
}

// Tell generates one story from the command line arguments.
func (st *Storyteller) Tell(cmd *cobra.Command, args []string) {
	key, _ := cmd.Flags().GetString("category")
	doExport, _ := cmd.Flags().GetBool("export")
	imageOut, _ := cmd.Flags().GetString("image-out")
	noSpeak, _ := cmd.Flags().GetBool("no-speak")

	c, ok := category.Lookup(key)
	if !ok {
		colours.Error.Fprintf(st.out, "❌ Unknown category '%s'. See 'categories' for options.\n", key)
		return
	}

	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		colours.Prompt.Fprint(st.out, "✍️  What story would you like to hear? ")
		line, err := st.readLine()
		if err != nil {
			return
		}
		prompt = line
	}

	res := st.generate(story.Request{Prompt: prompt, Category: c.Name}, c, !noSpeak)
	if res == nil {
		return
	}

	if doExport {
		st.exportStory(res)
	}
	if imageOut != "" {
		st.saveIllustration(res, imageOut)
	}

	st.controls(res)
}

// Interactive runs the category picker and prompt loop until the user quits.
func (st *Storyteller) Interactive(cmd *cobra.Command, args []string) {
	st.ShowWelcome()

	for {
		c, ok := st.pickCategory()
		if !ok {
			st.goodbye()
			return
		}

		colours.Prompt.Fprintf(st.out, "✍️  %s %s: what should the story be about? ", icon(c), c.Name)
		prompt, err := st.readLine()
		if err != nil {
			st.goodbye()
			return
		}
		if prompt == "" {
			colours.Warning.Fprintln(st.out, "⚠️  Please enter a story idea.")
			continue
		}

		res := st.generate(story.Request{Prompt: prompt, Category: c.Name}, c, true)
		if res == nil {
			continue
		}
		if st.controls(res) == actionQuit {
			st.goodbye()
			return
		}
	}
}

func (st *Storyteller) pickCategory() (category.Category, bool) {
	cats := category.All()
	def := category.Default()

	for {
		fmt.Fprintln(st.out)
		colours.Title.Fprintln(st.out, "🌍 Choose a category")
		for i, c := range cats {
			fmt.Fprintf(st.out, "  %d. %s %s\n", i+1, icon(c), c.Name)
		}
		colours.Prompt.Fprintf(st.out, "🌟 Enter a number (Enter for %s, 'q' to quit): ", def.Name)

		input, err := st.readLine()
		if err != nil {
			return category.Category{}, false
		}
		switch strings.ToLower(input) {
		case "q", "quit":
			return category.Category{}, false
		case "":
			return def, true
		}

		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(cats) {
			return cats[n-1], true
		}
		if c, ok := category.Lookup(input); ok {
			return c, true
		}
		colours.Error.Fprintln(st.out, "❌ Invalid selection! Please try again.")
	}
}

func (st *Storyteller) generate(req story.Request, c category.Category, autoplay bool) *story.Result {
	if err := st.state.Begin(); err != nil {
		colours.Warning.Fprintf(st.out, "⏳ %v\n", err)
		return nil
	}

	fmt.Fprintln(st.out)
	colours.Info.Fprintf(st.out, "🪶 Weaving a %s story...\n", strings.ToLower(c.Name))

	ctx := st.ctx
	if st.cfg != nil && st.cfg.Generation.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.cfg.Generation.Timeout)
		defer cancel()
	}

	res, err := st.generator.Generate(ctx, req)
	if err != nil {
		st.state.Fail(err)
		colours.Error.Fprintf(st.out, "❌ %v\n", err)
		return nil
	}
	st.state.Succeed(res)

	st.display(res, c)

	if st.cfg != nil && !st.cfg.TTS.Autoplay {
		autoplay = false
	}
	if err := st.Reader.Present(res, autoplay); err != nil {
		colours.Warning.Fprintf(st.out, "⚠️  Could not start reading: %v\n", err)
	} else if st.Reader.Speaking() {
		colours.Success.Fprintln(st.out, "🔊 Reading aloud...")
	}
	return res
}

func (st *Storyteller) display(res *story.Result, c category.Category) {
	fmt.Fprintln(st.out)
	colours.Title.Fprintf(st.out, "📜 %s\n", res.Title)
	colours.Culture.Fprintf(st.out, "%s %s\n", icon(c), c.Name)

	if mime, data, err := res.Image(); err == nil {
		colours.Muted.Fprintf(st.out, "🖼️  Illustration: %s, %.1f KB\n", mime, float64(len(data))/1024)
	}
	fmt.Fprintln(st.out)
	fmt.Fprintln(st.out, res.Text)
	fmt.Fprintln(st.out)
	colours.Moral.Fprintf(st.out, "✨ Moral: %s\n", res.Moral)
}

type action int

const (
	actionNew action = iota
	actionQuit
)

func (st *Storyteller) controlsHelp() string {
	var parts []string
	if st.Reader.Supported() {
		parts = append(parts, "'r' read aloud", "'p' pause/resume")
	}
	parts = append(parts, "'e' export PDF", "'i' save illustration", "'n' new story", "'q' quit")
	return strings.Join(parts, ", ")
}

// controls handles the actions available on a displayed story.
func (st *Storyteller) controls(res *story.Result) action {
	defer st.Reader.Close()

	for {
		select {
		case <-st.ctx.Done():
			return actionQuit
		default:
		}

		fmt.Fprintf(st.out, "\n🎛️  %s: ", st.controlsHelp())
		input, err := st.readLine()
		if err != nil {
			return actionQuit
		}

		switch strings.ToLower(input) {
		case "r", "read":
			if !st.Reader.Supported() {
				colours.Info.Fprintln(st.out, "ℹ️  Read aloud isn't available on this system")
				continue
			}
			if err := st.Reader.Toggle(); err != nil {
				colours.Error.Fprintf(st.out, "❌ TTS Error: %v\n", err)
			} else if st.Reader.Speaking() {
				colours.Success.Fprintln(st.out, "🔊 Reading aloud...")
			} else {
				colours.Warning.Fprintln(st.out, "⏹️  Stopped")
			}
		case "p", "pause":
			if !st.Reader.Supported() || !st.Reader.Speaking() {
				colours.Info.Fprintln(st.out, "ℹ️  Nothing is being read")
				continue
			}
			if st.Reader.Paused() {
				if err := st.Reader.Resume(); err != nil {
					colours.Error.Fprintf(st.out, "❌ TTS Error: %v\n", err)
					continue
				}
				colours.Success.Fprintln(st.out, "▶️  Resumed")
			} else {
				if err := st.Reader.Pause(); err != nil {
					colours.Error.Fprintf(st.out, "❌ TTS Error: %v\n", err)
					continue
				}
				colours.Warning.Fprintln(st.out, "⏸️  Paused")
			}
		case "e", "export":
			st.exportStory(res)
		case "i", "image":
			st.saveIllustration(res, filepath.Join(st.exportDir(), strings.TrimSuffix(res.ExportFilename(), ".pdf")))
		case "n", "new":
			return actionNew
		case "q", "quit":
			return actionQuit
		case "":
			continue
		default:
			colours.Info.Fprintf(st.out, "ℹ️  Use %s\n", st.controlsHelp())
		}
	}
}

func (st *Storyteller) exportDir() string {
	if st.cfg != nil && st.cfg.Export.Dir != "" {
		return st.cfg.Export.Dir
	}
	return "."
}

func (st *Storyteller) exportStory(res *story.Result) {
	colours.Info.Fprintln(st.out, "📄 Exporting...")
	path, err := st.exporter.Export(st.ctx, res, st.exportDir())
	if err != nil {
		if errors.Is(err, export.ErrExportInProgress) {
			colours.Warning.Fprintf(st.out, "⏳ %v\n", err)
			return
		}
		colours.Error.Fprintf(st.out, "❌ Export failed: %v\n", err)
		return
	}
	colours.Success.Fprintf(st.out, "✅ Saved %s\n", path)
}

func (st *Storyteller) saveIllustration(res *story.Result, path string) {
	written, err := export.SaveIllustration(res, path)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Error("Failed to save illustration")
		colours.Error.Fprintf(st.out, "❌ Could not save illustration: %v\n", err)
		return
	}
	colours.Success.Fprintf(st.out, "🖼️  Saved %s\n", written)
}

func (st *Storyteller) Voices(cmd *cobra.Command, args []string) {
	if st.engine == nil {
		colours.Warning.Fprintln(st.out, "🔇 Speech isn't available on this system")
		return
	}

	voices, err := st.engine.Voices()
	if err != nil {
		colours.Error.Fprintf(st.out, "❌ Failed to list voices: %v\n", err)
		return
	}

	fmt.Fprintln(st.out)
	colours.Title.Fprintf(st.out, "🎤 Voices (%s engine)\n", st.engine.Name())
	fmt.Fprintln(st.out)
	for _, v := range voices {
		fmt.Fprintf(st.out, "  • %s\n", v)
	}
	fmt.Fprintln(st.out)
}

func (st *Storyteller) ShowSettings(cmd *cobra.Command, args []string) {
	fmt.Fprintln(st.out)
	colours.Title.Fprintln(st.out, "⚙️ Settings ⚙️")
	fmt.Fprintln(st.out)
	if st.cfg == nil {
		return
	}

	text, image := st.cfg.Gemini.TextModel, st.cfg.Gemini.ImageModel
	if st.cfg.Provider == config.ProviderOpenAI {
		text, image = st.cfg.OpenAI.TextModel, st.cfg.OpenAI.ImageModel
	}

	colours.Prompt.Fprintln(st.out, "🤖 Generation:")
	fmt.Fprintf(st.out, "  • Provider: %s\n", st.cfg.Provider)
	fmt.Fprintf(st.out, "  • Text model: %s\n", text)
	fmt.Fprintf(st.out, "  • Image model: %s\n", image)
	fmt.Fprintf(st.out, "  • Timeout: %s\n", st.cfg.Generation.Timeout)
	fmt.Fprintln(st.out)

	colours.Prompt.Fprintln(st.out, "🎤 Voice Settings:")
	engine := "unavailable"
	if st.engine != nil {
		engine = st.engine.Name()
	}
	fmt.Fprintf(st.out, "  • Engine: %s\n", engine)
	var available []string
	for _, e := range tts.GetAvailableEngines() {
		available = append(available, e.String())
	}
	fmt.Fprintf(st.out, "  • Available engines: %s\n", strings.Join(available, ", "))
	fmt.Fprintf(st.out, "  • Current voice: %s\n", st.cfg.TTS.Voice)
	fmt.Fprintf(st.out, "  • Speed: %.1fx\n", st.cfg.TTS.Speed)
	fmt.Fprintf(st.out, "  • Volume: %.0f%%\n", st.cfg.TTS.Volume*100)
	fmt.Fprintf(st.out, "  • Autoplay: %t\n", st.cfg.TTS.Autoplay)
	fmt.Fprintln(st.out)

	colours.Prompt.Fprintln(st.out, "📄 Export:")
	fmt.Fprintf(st.out, "  • Directory: %s\n", st.exportDir())
}

func (st *Storyteller) goodbye() {
	colours.Warning.Fprintln(st.out, "👋 Thanks for listening! Come back for more stories 🌙")
}

// readLine returns the next trimmed input line. io.EOF is returned only when
// no more input is available.
func (st *Storyteller) readLine() (string, error) {
	line, err := st.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
