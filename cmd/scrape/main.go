package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/subosito/gotenv"
	"golang.org/x/term"

	"github.com/umputun/postscope/pkg/browser"
	"github.com/umputun/postscope/pkg/content"
	"github.com/umputun/postscope/pkg/domain"
	"github.com/umputun/postscope/pkg/media"
	"github.com/umputun/postscope/pkg/originality"
	"github.com/umputun/postscope/pkg/repository"
	"github.com/umputun/postscope/pkg/scrape"
	"github.com/umputun/postscope/pkg/store"
)

// Opts with all CLI options
type Opts struct {
	Channels  []string `short:"c" long:"channels" env:"CHANNELS" env-delim:"," required:"true" description:"profile or company URLs, comma-separated or repeated"`
	Output    string   `short:"o" long:"output" default:"posts.json" description:"output JSON file"`
	MaxPosts  int      `long:"max-posts" default:"50" description:"maximum posts per channel"`
	Scrolls   int      `long:"scrolls" default:"10" description:"scroll iterations to load posts"`
	Headless  bool     `long:"headless" description:"run browser in headless mode"`
	Email     string   `long:"email" env:"LINKEDIN_EMAIL" description:"login email, prompted if empty"`
	Password  string   `long:"password" env:"LINKEDIN_PASSWORD" description:"login password, prompted if empty"`
	OnFailure string   `long:"on-failure" default:"original" choice:"original" choice:"repost" description:"verdict for items without readable author"`
	DB        string   `long:"db" env:"ARCHIVE_DSN" description:"archive database DSN, archive is skipped if empty"`
	MediaDir  string   `long:"media-dir" env:"MEDIA_DIR" description:"download media of archived posts here, skipped if empty"`
	EnvFile   string   `long:"env-file" default:".env" description:"file with environment variables"`

	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
}

var revision = "unknown"

func main() {
	// .env is read before flags so its values are visible to env-backed options
	if err := gotenv.Load(envFileArg(os.Args[1:])); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load env file: %v\n", err)
	}

	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		fmt.Println("\nscraping interrupted, saving collected posts")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()
	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts Opts) error {
	channels := parseChannels(opts.Channels)
	if len(channels) == 0 {
		return errors.New("no valid channel URLs provided")
	}

	fmt.Printf("postscope scraper %s\n", revision)
	fmt.Printf("channels to scrape: %d\n", len(channels))
	fmt.Printf("max posts per channel: %d\n", opts.MaxPosts)
	fmt.Printf("output file: %s\n", opts.Output)
	fmt.Printf("headless mode: %v\n", opts.Headless)

	var err error
	prompt := newPrompter(os.Stdin, os.Stdout)
	if opts.Email == "" {
		if opts.Email, err = prompt.line("email: "); err != nil {
			return fmt.Errorf("read email: %w", err)
		}
	}
	if opts.Password == "" {
		if opts.Password, err = prompt.password("password: "); err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}
	setupLog(opts.Debug, opts.Password)

	bcfg := browser.Config{Headless: opts.Headless}
	if !opts.Headless {
		bcfg.Verify = func(context.Context) error {
			_, err := prompt.line("complete the verification in the browser window, then press Enter: ")
			return err
		}
	}
	br, err := browser.New(bcfg)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		br.Close()
		fmt.Println("browser closed")
	}()

	if err := br.Login(ctx, opts.Email, opts.Password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	var archive *repository.Repositories
	if opts.DB != "" {
		if archive, err = repository.NewRepositories(ctx, repository.Config{DSN: opts.DB}); err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer archive.Close() //nolint:errcheck // read-only after save
	}

	var downloader *media.Downloader
	if opts.MediaDir != "" && archive != nil {
		cookies, err := br.Cookies()
		if err != nil {
			log.Printf("[WARN] media will be fetched without session cookies: %v", err)
		}
		downloader = media.NewDownloader(media.Config{Dir: opts.MediaDir, Cookies: cookies})
	}

	return scrapeChannels(ctx, opts, channels, br, archive, downloader, os.Stdout)
}

// scrapeChannels runs extraction and saves whatever was collected, also on interruption.
// Media is downloaded only for archived runs, downloader may be nil.
func scrapeChannels(ctx context.Context, opts Opts, channels []string, src scrape.PageSource,
	archive *repository.Repositories, downloader *media.Downloader, out io.Writer) error {
	runner := scrape.NewRunner(scrape.Config{
		Source:     src,
		Extractor:  scrape.NewExtractor(content.NewTextExtractor()),
		Classifier: originality.New(originality.Config{FailClosed: opts.OnFailure == "repost"}),
		MaxPosts:   opts.MaxPosts,
		Scrolls:    opts.Scrolls,
	})

	started := time.Now()
	var sessionID int64
	if archive != nil {
		sess, err := archive.Session.CreateSession(ctx, channels, started)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		sessionID = sess.ID
	}

	posts, runErr := runner.Run(ctx, channels)
	store.Sort(posts)
	if downloader != nil && sessionID != 0 && len(posts) > 0 {
		fmt.Fprintf(out, "downloading media to %s\n", filepath.Join(opts.MediaDir, media.SessionDir(sessionID)))
		posts = downloader.Download(ctx, sessionID, posts)
	}

	fmt.Fprintln(out, "\n--- saving results ---")
	if err := store.SaveFile(opts.Output, posts); err != nil {
		return fmt.Errorf("save posts: %w", err)
	}
	if archive != nil {
		// the run context may be canceled already, bookkeeping uses its own
		bg := context.WithoutCancel(ctx)
		if err := archive.Post.SavePosts(bg, sessionID, posts); err != nil {
			log.Printf("[WARN] failed to archive posts: %v", err)
		}
		if err := archive.Session.FinishSession(bg, sessionID, len(posts), runErr); err != nil {
			log.Printf("[WARN] failed to finish session: %v", err)
		}
	}

	if len(posts) == 0 {
		fmt.Fprintln(out, "no posts were extracted")
	} else {
		fmt.Fprintf(out, "saved %d posts to %s\n", len(posts), opts.Output)
		printSummary(out, posts, time.Since(started))
	}

	if errors.Is(runErr, context.Canceled) {
		fmt.Fprintln(out, "scraping interrupted by user")
		return nil
	}
	return runErr
}

func printSummary(out io.Writer, posts []domain.Post, took time.Duration) {
	st := store.NewCollection()
	st.Replace(posts)
	stats := st.Stats()

	fmt.Fprintln(out, "\nSUMMARY:")
	fmt.Fprintf(out, "  total posts: %s\n", humanize.Comma(int64(stats.TotalPosts)))
	fmt.Fprintf(out, "  total media files: %s\n", humanize.Comma(int64(stats.TotalMedia)))
	fmt.Fprintf(out, "  total text length: %s characters\n", humanize.Comma(int64(stats.TotalCharacters)))
	fmt.Fprintf(out, "  average post length: %s characters\n", humanize.Comma(int64(stats.AverageLength)))
	if stats.DateRange != nil {
		fmt.Fprintf(out, "  newest post: %s (%s)\n", stats.DateRange.Latest.Format(time.RFC3339), humanize.Time(stats.DateRange.Latest))
		fmt.Fprintf(out, "  oldest post: %s (%s)\n", stats.DateRange.Earliest.Format(time.RFC3339), humanize.Time(stats.DateRange.Earliest))
	}
	fmt.Fprintf(out, "  posts sorted by: timestamp (newest first)\n")
	fmt.Fprintf(out, "  took: %s\n", took.Round(time.Second))
}

// parseChannels splits comma-separated values and drops blanks
func parseChannels(values []string) []string {
	var res []string
	for _, v := range values {
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				res = append(res, u)
			}
		}
	}
	return res
}

// envFileArg finds --env-file value in raw arguments
func envFileArg(args []string) string {
	for i, a := range args {
		if v, ok := strings.CutPrefix(a, "--env-file="); ok {
			return v
		}
		if a == "--env-file" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ".env"
}

// prompter reads answers from one buffered input shared by all prompts
type prompter struct {
	in  *os.File
	r   *bufio.Reader
	out io.Writer
}

func newPrompter(in *os.File, out io.Writer) *prompter {
	return &prompter{in: in, r: bufio.NewReader(in), out: out}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// password reads without echo on a terminal, plain line otherwise
func (p *prompter) password(label string) (string, error) {
	fd := int(p.in.Fd()) //nolint:gosec // fd fits int
	if !term.IsTerminal(fd) || p.r.Buffered() > 0 {
		return p.line(label)
	}
	fmt.Fprint(p.out, label)
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(pass)), nil
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces}
	}
	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 && secs[0] != "" {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
