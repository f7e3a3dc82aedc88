package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/go-queue-client/apiclient"
	"github.com/jrsteele09/go-queue-client/apimodel"
	"github.com/jrsteele09/go-queue-client/internal/config"
	"github.com/jrsteele09/go-queue-client/internal/errors"
	"github.com/jrsteele09/go-queue-client/queues"
	"github.com/jrsteele09/go-queue-client/session"
	"github.com/jrsteele09/go-queue-client/token/sqlitestore"
	"github.com/rs/zerolog"
)

const usage = `usage: queuectl <command> [flags]

commands:
  login     -email -password
  logout
  register  -email -password [-name] [-location]
  refresh
  status
  list      [-search] [-limit] [-offset]
  get       <code>
  create    -name [-description] [-image-url] [-max-block] [-max-party] [-closed] [-auto-dispatch]
`

var errUsage = errors.New(errors.KindValidation, "queuectl", "invalid usage")

type app struct {
	out     io.Writer
	logger  zerolog.Logger
	store   *sqlitestore.Store
	rest    *apiclient.Client
	session *session.Manager
}

func newApp(c config.Config, out io.Writer, logger zerolog.Logger) (*app, error) {
	store, err := sqlitestore.Open(c.GetStorePath(), sqlitestore.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}

	rest := apiclient.New(c.GetBaseURL(), apiclient.WithTimeout(c.GetHTTPTimeout()), apiclient.WithLogger(logger))
	m, err := session.New(rest, store, session.WithLogger(logger))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &app{out: out, logger: logger, store: store, rest: rest, session: m}, nil
}

// queueClient returns a client whose token refreshes are bound to ctx, so an
// interrupted command also abandons a refresh started on its behalf.
func (a *app) queueClient(ctx context.Context) (*queues.Client, error) {
	return queues.New(a.rest, a.session.RefreshingSource(ctx), queues.WithLogger(a.logger))
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
		a.store = nil
	}
}

func (a *app) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		a.session.Logout(ctx)
		fmt.Fprintln(a.out, "logged out")
		return nil
	case "register":
		return a.register(ctx, rest)
	case "refresh":
		return a.refresh(ctx)
	case "status":
		return a.status()
	case "list":
		return a.list(ctx, rest)
	case "get":
		return a.get(ctx, rest)
	case "create":
		return a.create(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.out, "unknown command %q\n\n%s", cmd, usage)
		return errUsage
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login", a.out)
	email := fs.String("email", "", "provider email")
	password := fs.String("password", "", "provider password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if _, err := a.session.Login(ctx, *email, *password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in, session expires at %s\n", a.session.Snapshot().ExpiresAt.Format("2006-01-02 15:04:05"))
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register", a.out)
	req := apimodel.RegisterRequest{}
	fs.StringVar(&req.Email, "email", "", "provider email")
	fs.StringVar(&req.Password, "password", "", "provider password")
	fs.StringVar(&req.Name, "name", "", "business name")
	fs.StringVar(&req.Location, "location", "", "business location")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if err := a.session.Register(ctx, req); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "registered, you can now log in")
	return nil
}

func (a *app) refresh(ctx context.Context) error {
	if _, err := a.session.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "refreshed, session expires at %s\n", a.session.Snapshot().ExpiresAt.Format("2006-01-02 15:04:05"))
	return nil
}

func (a *app) status() error {
	snap := a.session.Snapshot()
	if !snap.Authenticated {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "logged in (%s), session expires at %s\n", snap.State, snap.ExpiresAt.Format("2006-01-02 15:04:05"))
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := newFlagSet("list", a.out)
	q := queues.PageQuery{}
	fs.StringVar(&q.Search, "search", "", "filter by text")
	fs.IntVar(&q.Limit, "limit", queues.DefaultLimit, "page size")
	fs.IntVar(&q.Offset, "offset", 0, "items to skip")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	qc, err := a.queueClient(ctx)
	if err != nil {
		return err
	}
	page, err := qc.FetchPage(ctx, q)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tOPEN\tSIZE\tWAIT")
	for _, item := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%s\n", item.Code, item.Name, item.IsOpen, item.Size, item.WaitTimeEstimate)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d-%d of %d\n", min(q.Offset+1, page.Total), q.Offset+len(page.Items), page.Total)
	return nil
}

func (a *app) get(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprint(a.out, "usage: queuectl get <code>\n")
		return errUsage
	}
	qc, err := a.queueClient(ctx)
	if err != nil {
		return err
	}
	q, err := qc.GetByKey(ctx, strings.ToUpper(args[0]))
	if err != nil {
		return err
	}
	if q == nil {
		return errors.Newf(errors.KindNotFound, "queuectl get", "queue %s not found", args[0])
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(q)
}

func (a *app) create(ctx context.Context, args []string) error {
	fs := newFlagSet("create", a.out)
	q := queues.NewQueue("")
	var closed, autoDispatch bool
	fs.StringVar(&q.Name, "name", "", "queue name")
	fs.StringVar(&q.Description, "description", "", "queue description")
	fs.StringVar(&q.ImageURL, "image-url", "", "image shown for the queue")
	fs.IntVar(&q.MaxBlockCapacity, "max-block", q.MaxBlockCapacity, "maximum people per block")
	fs.IntVar(&q.MaxPartyCapacity, "max-party", q.MaxPartyCapacity, "maximum people per party")
	fs.BoolVar(&closed, "closed", false, "create the queue closed")
	fs.BoolVar(&autoDispatch, "auto-dispatch", false, "dispatch blocks automatically")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	q.IsOpen = !closed
	q.ManualDispatch = !autoDispatch

	qc, err := a.queueClient(ctx)
	if err != nil {
		return err
	}
	if err := qc.Create(ctx, q); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created queue %q\n", q.Name)
	return nil
}

// exitCode maps error kinds to process exit codes.
func exitCode(err error) int {
	switch errors.KindOf(err) {
	case errors.KindValidation:
		return 2
	case errors.KindAuth, errors.KindUnauthenticated:
		return 3
	case errors.KindNotFound:
		return 4
	case errors.KindNetwork:
		return 5
	default:
		return 1
	}
}
