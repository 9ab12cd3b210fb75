package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"lector-reader/internal/document"
	"lector-reader/internal/domain"
	"lector-reader/internal/reader"

	"github.com/spf13/cobra"
)

const readHelp = `Commands:
  next | prev            move one page
  goto <page>            jump to a page
  scroll <px>            scroll by px (negative scrolls up)
  resize <px>            change the view height
  text                   print the text of the current page
  select <text>          select text on the current page
  highlight [color]      save the selection as a highlight
  underline [color]      save the selection as an underline
  delete <id>            delete an annotation
  list                   list annotations
  marks                  show annotations drawn on the current page
  progress               show reading progress
  finish                 mark the document as finished
  status                 show page and session state
  help                   show this help
  quit                   close the document`

func newReadCmd(opts *options) *cobra.Command {
	var (
		file      string
		pages     int
		width     float64
		viewport  float64
		resume    bool
		restart   bool
		debounce  time.Duration
		heartbeat time.Duration
	)

	cmd := &cobra.Command{
		Use:   "read <document-id>",
		Short: "Open a document and read it interactively",
		Long: `Open a document and read it interactively.

Commands are read one per line from standard input. Your reading session is
opened on the server, progress is pushed as you move through the pages and
the session is closed when you quit.

Examples:
  lector read 9f1c2e --file book.pdf
  lector read 9f1c2e --pages 120 --viewport 900
  lector read 9f1c2e --file book.pdf --restart

` + readHelp,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			api, err := opts.api()
			if err != nil {
				return err
			}

			var src document.Source
			switch {
			case file != "":
				doc, err := document.Open(file, opts.logger)
				if err != nil {
					return err
				}
				src = doc
			case pages > 0:
				src = document.NewUniform(pages, document.Letter)
			default:
				return fmt.Errorf("pass --file or --pages")
			}
			defer src.Close()

			if src.Metadata().PageCount == 0 {
				return fmt.Errorf("document has no pages")
			}

			s := &readSession{
				api:        api,
				logger:     opts.logger,
				format:     format,
				documentID: args[0],
				source:     src,
				layout:     NewLayout(src.PageSizes(), width, viewport),
				out:        cmd.OutOrStdout(),
			}
			if restart {
				session, err := api.StartSession(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("start new session: %w", err)
				}
				opts.logger.Debug("Started new reading session", "session_id", session.ID, "document_id", args[0])
			}
			return s.run(cmd.Context(), cmd.InOrStdin(), resume, reader.SyncOptions{
				Debounce:  debounce,
				Heartbeat: heartbeat,
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "PDF file to read")
	cmd.Flags().IntVar(&pages, "pages", 0, "page count of a blank document, when no file is given")
	cmd.Flags().Float64Var(&width, "width", 600, "view width")
	cmd.Flags().Float64Var(&viewport, "viewport", 800, "view height")
	cmd.Flags().BoolVar(&resume, "resume", true, "start at the last saved page")
	cmd.Flags().BoolVar(&restart, "restart", false, "end any open session and start a new one")
	cmd.Flags().DurationVar(&debounce, "debounce", opts.cfg.GetReaderDebounce(), "quiet time before a page change is pushed")
	cmd.Flags().DurationVar(&heartbeat, "heartbeat", opts.cfg.GetReaderHeartbeat(), "progress heartbeat interval")

	return cmd
}

type readSession struct {
	api        API
	logger     domain.Logger
	format     Format
	documentID string
	source     document.Source
	layout     *Layout
	reader     *reader.Reader
	out        io.Writer
}

func (s *readSession) run(ctx context.Context, in io.Reader, resume bool, syncOpts reader.SyncOptions) error {
	actor, err := s.api.Actor(ctx)
	if err != nil {
		return fmt.Errorf("failed to identify reader: %w", err)
	}

	total := s.layout.Pages()
	initial := 1
	if resume {
		initial = s.savedPage(ctx, total)
	}
	s.layout.ScrollToPage(initial)

	s.reader = reader.New(s.layout.Container, reader.Deps{
		Gate:        s.api,
		Sessions:    s.api,
		Progress:    s.api,
		Annotations: s.api,
		Logger:      s.logger,
	}, reader.Options{Sync: syncOpts, InitialPage: initial})

	for page := 1; page <= total; page++ {
		s.reader.RegisterPage(page, s.layout.Page(page))
	}
	s.reader.SetTotalPages(total)

	if err := s.reader.Mount(ctx, actor, s.documentID); err != nil {
		var gateErr *reader.GateError
		if errors.As(err, &gateErr) {
			fmt.Fprintf(s.out, "Reading blocked: %s\n", describeReason(gateErr.Reason))
		}
		return err
	}

	title := s.source.Metadata().Title
	if title == "" {
		title = s.documentID
	}
	fmt.Fprintf(s.out, "Opened %s, %d pages. Type help for commands.\n", title, total)
	s.printPage()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !s.exec(ctx, line) {
			break
		}
	}

	s.reader.Unmount()
	s.reader.Wait()
	fmt.Fprintln(s.out, "Session closed.")
	return scanner.Err()
}

func (s *readSession) savedPage(ctx context.Context, total int) int {
	progress, err := s.api.GetProgress(ctx, s.documentID)
	if err != nil {
		s.logger.Warn("Failed to load saved progress", "document_id", s.documentID, "error", err)
		return 1
	}
	if progress.CurrentPage < 1 || progress.CurrentPage > total {
		return 1
	}
	return progress.CurrentPage
}

// exec runs one command line. It returns false when the user quits.
func (s *readSession) exec(ctx context.Context, line string) bool {
	name, arg := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		name, arg = line[:i], strings.TrimSpace(line[i+1:])
	}

	var err error
	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return false
	case "help", "?":
		fmt.Fprintln(s.out, readHelp)
	case "next", "n":
		s.layout.ScrollToPage(s.reader.CurrentPage() + 1)
		s.scrolled()
	case "prev", "p":
		s.layout.ScrollToPage(s.reader.CurrentPage() - 1)
		s.scrolled()
	case "goto":
		err = s.gotoPage(arg)
	case "scroll":
		err = s.scrollBy(arg)
	case "resize":
		err = s.resize(arg)
	case "text":
		err = s.printText()
	case "select":
		s.selectText(arg)
	case "highlight":
		err = s.annotate(ctx, domain.KindHighlight, arg)
	case "underline":
		err = s.annotate(ctx, domain.KindUnderline, arg)
	case "delete":
		err = s.deleteAnnotation(ctx, arg)
	case "list":
		views := newAnnotationViews(s.reader.Annotations())
		err = render(s.out, s.format, views, func(w io.Writer) { writeAnnotations(w, views) })
	case "marks":
		s.printOverlays()
	case "progress":
		view := progressUpdateView(s.documentID, s.reader.Progress())
		err = render(s.out, s.format, view, func(w io.Writer) { writeProgress(w, view) })
	case "finish":
		err = s.finish(ctx)
	case "status":
		s.printStatus()
	default:
		err = fmt.Errorf("unknown command %q, type help for commands", name)
	}

	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
	return true
}

func (s *readSession) scrolled() {
	s.reader.Scroll()
	s.printPage()
}

func (s *readSession) printPage() {
	fmt.Fprintf(s.out, "%s\n", domain.LocationLabel(s.reader.CurrentPage(), s.reader.TotalPages()))
}

func (s *readSession) gotoPage(arg string) error {
	page, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("goto needs a page number")
	}
	if page < 1 || page > s.reader.TotalPages() {
		return fmt.Errorf("page %d is out of range 1-%d", page, s.reader.TotalPages())
	}
	s.layout.ScrollToPage(page)
	s.scrolled()
	return nil
}

func (s *readSession) scrollBy(arg string) error {
	dy, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return fmt.Errorf("scroll needs a distance")
	}
	s.layout.ScrollBy(dy)
	s.scrolled()
	return nil
}

func (s *readSession) resize(arg string) error {
	h, err := strconv.ParseFloat(arg, 64)
	if err != nil || h <= 0 {
		return fmt.Errorf("resize needs a positive height")
	}
	s.layout.Resize(h)
	s.reader.Resize()
	s.printPage()
	return nil
}

func (s *readSession) printText() error {
	text, err := s.source.Text(s.reader.CurrentPage())
	if err != nil {
		return err
	}
	if text == "" {
		fmt.Fprintln(s.out, "(no text on this page)")
		return nil
	}
	fmt.Fprintln(s.out, text)
	return nil
}

func (s *readSession) selectText(text string) {
	page := s.reader.CurrentPage()
	rects, ok := s.layout.SelectionRects(page, text)
	if !ok {
		s.reader.ClearSelection()
		fmt.Fprintf(s.out, "Page %d is not visible enough to select on.\n", page)
		return
	}
	sel := s.reader.Select(reader.SelectionSnapshot{Text: text, Rects: rects})
	if sel == nil {
		fmt.Fprintln(s.out, "Nothing selected.")
		return
	}
	fmt.Fprintf(s.out, "Selected %q on page %d.\n", excerpt(sel.Text, 48), sel.Page)
}

func (s *readSession) annotate(ctx context.Context, kind domain.AnnotationKind, color string) error {
	if color == "" {
		color = domain.DefaultColor
	}
	created, err := s.reader.CreateAnnotation(ctx, kind, strings.ToLower(color))
	if errors.Is(err, reader.ErrNoSelection) {
		return fmt.Errorf("select some text first")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Saved %s %s on page %d.\n", kind, created.ID, created.PageNumber)
	return nil
}

func (s *readSession) deleteAnnotation(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete needs an annotation id")
	}
	if err := s.reader.DeleteAnnotation(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Deleted %s.\n", id)
	return nil
}

func (s *readSession) printOverlays() {
	page := s.reader.CurrentPage()
	overlays := s.reader.Overlays(page)
	if len(overlays) == 0 {
		fmt.Fprintf(s.out, "No annotations on page %d.\n", page)
		return
	}
	for _, o := range overlays {
		fmt.Fprintf(s.out, "%s  %s %s  %d rect(s)", o.AnnotationID, o.Style, o.Color, len(o.Rects))
		if o.Note != nil && *o.Note != "" {
			fmt.Fprintf(s.out, "  note: %s", *o.Note)
		}
		fmt.Fprintln(s.out)
	}
}

func (s *readSession) finish(ctx context.Context) error {
	update, ok, err := s.reader.MarkFinished(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("could not record the finish, see the log")
	}
	view := progressUpdateView(s.documentID, update)
	return render(s.out, s.format, view, func(w io.Writer) {
		fmt.Fprintf(w, "Finished %s.\n", s.documentID)
	})
}

func (s *readSession) printStatus() {
	fmt.Fprintf(s.out, "%s, session %s", domain.LocationLabel(s.reader.CurrentPage(), s.reader.TotalPages()), s.reader.SessionState())
	if id := s.reader.SessionID(); id != "" {
		fmt.Fprintf(s.out, " (%s)", id)
	}
	fmt.Fprintln(s.out)
}

func describeReason(reason string) string {
	switch reason {
	case domain.ReasonSubscriptionRequired:
		return "an active subscription is required"
	case domain.ReasonSubscriptionExpired:
		return "your subscription has expired"
	case domain.ReasonAccountDisabled:
		return "this account is disabled"
	case domain.ReasonCheckFailed:
		return "access could not be verified, try again later"
	default:
		return reason
	}
}
