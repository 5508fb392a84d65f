// Command hr is a CLI client for the Honey Rae service desk.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// ---- config/token store ----

type tokenFile struct {
	Token   string    `json:"token"`
	Email   string    `json:"email"`
	SavedAt time.Time `json:"saved_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "honeyrae")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "honeyrae")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok, email string) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{Token: tok, Email: email, SavedAt: time.Now().UTC()})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", errors.New("not logged in (run hr login)")
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.Token == "" {
		return "", errors.New("not logged in (run hr login)")
	}
	return tf.Token, nil
}

func dropToken() error {
	err := os.Remove(tokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ---- utils ----

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func printTickets(w io.Writer, ts []ticket) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tEMERGENCY\tCUSTOMER\tEMPLOYEE\tDESCRIPTION")
	for _, t := range ts {
		emp := "-"
		if t.Employee != nil {
			emp = t.Employee.FullName
		}
		fmt.Fprintf(tw, "%d\t%s\t%t\t%s\t%s\t%s\n",
			t.ID, t.status(), t.Emergency, t.Customer.FullName, emp, oneLine(t.Description, 60))
	}
	_ = tw.Flush()
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}

func usage(w io.Writer) {
	fmt.Fprint(w, `hr CLI
Usage:
  hr [-server URL] <cmd> [args]

Commands:
  version
  register   -email <e> -password <p> -first <f> -last <l> -type customer|employee
             [-address <a> | -specialty <s>]      (saves token)
  login      -email <e> -password <p>            (saves token)
  logout
  tickets    [-status all|done|unclaimed|inprogress]
  ticket     -id <n>
  open       -d <description> [-emergency]
  claim      -id <n> -employee <n>
  complete   -id <n> [-at <timestamp>]           (default: now)
  reopen     -id <n>                             (clears date_completed)
  unclaim    -id <n>                             (clears employee)
  rm         -id <n>
  customers
  customer   -id <n>
  address    -id <n> -set <address>
  employees
`)
}

var errUsage = errors.New("usage")

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the configured server.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	gfs := flag.NewFlagSet("hr", flag.ContinueOnError)
	gfs.SetOutput(io.Discard)
	server := gfs.String("server", choose(os.Getenv("HR_SERVER"), "http://localhost:8080"), "server base URL")
	if err := gfs.Parse(args); err != nil || gfs.NArg() < 1 {
		return errUsage
	}
	cmd, rest := gfs.Arg(0), gfs.Args()[1:]

	// authed returns a client carrying the saved token.
	authed := func() (*client, error) {
		tok, err := loadToken()
		if err != nil {
			return nil, err
		}
		return newClient(*server, tok), nil
	}

	switch cmd {

	case "version":
		fmt.Fprintf(out, "hr %s (%s)\n", version, buildDate)
		return nil

	case "register":
		fs := flag.NewFlagSet("register", flag.ContinueOnError)
		req := registerReq{}
		fs.StringVar(&req.Email, "email", "", "email")
		fs.StringVar(&req.Password, "password", "", "password")
		fs.StringVar(&req.FirstName, "first", "", "first name")
		fs.StringVar(&req.LastName, "last", "", "last name")
		fs.StringVar(&req.AccountType, "type", "customer", "customer or employee")
		fs.StringVar(&req.Address, "address", "", "customer address")
		fs.StringVar(&req.Specialty, "specialty", "", "employee specialty")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		if req.Email == "" || req.Password == "" {
			return errors.New("need -email and -password")
		}
		var resp struct {
			Token string `json:"token"`
		}
		if err := newClient(*server, "").do(ctx, http.MethodPost, "/register", req, &resp); err != nil {
			return err
		}
		if err := saveToken(resp.Token, req.Email); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
		return nil

	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		var resp loginResp
		body := map[string]string{"email": *email, "password": *password}
		if err := newClient(*server, "").do(ctx, http.MethodPost, "/login", body, &resp); err != nil {
			return err
		}
		if !resp.Valid {
			return errors.New("invalid credentials")
		}
		if err := saveToken(resp.Token, *email); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
		return nil

	case "logout":
		return dropToken()

	case "tickets":
		fs := flag.NewFlagSet("tickets", flag.ContinueOnError)
		status := fs.String("status", "", "all, done, unclaimed or inprogress")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		c, err := authed()
		if err != nil {
			return err
		}
		path := "/tickets"
		if *status != "" {
			path += "?status=" + url.QueryEscape(*status)
		}
		var ts []ticket
		if err := c.do(ctx, http.MethodGet, path, nil, &ts); err != nil {
			return err
		}
		printTickets(out, ts)
		return nil

	case "ticket":
		id, err := idFlag("ticket", rest)
		if err != nil {
			return err
		}
		c, err := authed()
		if err != nil {
			return err
		}
		var t json.RawMessage
		if err := c.do(ctx, http.MethodGet, "/tickets/"+id, nil, &t); err != nil {
			return err
		}
		printJSON(out, t)
		return nil

	case "open":
		fs := flag.NewFlagSet("open", flag.ContinueOnError)
		desc := fs.String("d", "", "description")
		emergency := fs.Bool("emergency", false, "emergency ticket")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		if strings.TrimSpace(*desc) == "" {
			return errors.New("need -d")
		}
		c, err := authed()
		if err != nil {
			return err
		}
		var t ticket
		body := map[string]any{"description": *desc, "emergency": *emergency}
		if err := c.do(ctx, http.MethodPost, "/tickets", body, &t); err != nil {
			return err
		}
		fmt.Fprintln(out, t.ID)
		return nil

	case "claim":
		fs := flag.NewFlagSet("claim", flag.ContinueOnError)
		id := fs.Int64("id", 0, "ticket id")
		emp := fs.Int64("employee", 0, "employee id")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		if *id <= 0 || *emp <= 0 {
			return errors.New("need -id and -employee")
		}
		return updateTicket(ctx, authed, out, *id, map[string]any{"employee": *emp})

	case "complete":
		fs := flag.NewFlagSet("complete", flag.ContinueOnError)
		id := fs.Int64("id", 0, "ticket id")
		at := fs.String("at", "now", "completion timestamp")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		if *id <= 0 {
			return errors.New("need -id")
		}
		return updateTicket(ctx, authed, out, *id, map[string]any{"date_completed": *at})

	case "reopen", "unclaim":
		n, err := idFlag(cmd, rest)
		if err != nil {
			return err
		}
		id, _ := strconv.ParseInt(n, 10, 64)
		field := "date_completed"
		if cmd == "unclaim" {
			field = "employee"
		}
		return updateTicket(ctx, authed, out, id, map[string]any{field: nil})

	case "rm":
		id, err := idFlag("rm", rest)
		if err != nil {
			return err
		}
		c, err := authed()
		if err != nil {
			return err
		}
		if err := c.do(ctx, http.MethodDelete, "/tickets/"+id, nil, nil); err != nil {
			return err
		}
		fmt.Fprintln(out, "deleted")
		return nil

	case "customers", "employees":
		c, err := authed()
		if err != nil {
			return err
		}
		var rows json.RawMessage
		if err := c.do(ctx, http.MethodGet, "/"+cmd, nil, &rows); err != nil {
			return err
		}
		printJSON(out, rows)
		return nil

	case "customer":
		id, err := idFlag("customer", rest)
		if err != nil {
			return err
		}
		c, err := authed()
		if err != nil {
			return err
		}
		var row json.RawMessage
		if err := c.do(ctx, http.MethodGet, "/customers/"+id, nil, &row); err != nil {
			return err
		}
		printJSON(out, row)
		return nil

	case "address":
		fs := flag.NewFlagSet("address", flag.ContinueOnError)
		id := fs.Int64("id", 0, "customer id")
		addr := fs.String("set", "", "new address")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		if *id <= 0 || *addr == "" {
			return errors.New("need -id and -set")
		}
		c, err := authed()
		if err != nil {
			return err
		}
		path := "/customers/" + strconv.FormatInt(*id, 10)
		if err := c.do(ctx, http.MethodPut, path, map[string]string{"address": *addr}, nil); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
		return nil

	default:
		return errUsage
	}
}

// ---- helpers ----

// idFlag parses a lone -id flag and returns it as a path segment.
func idFlag(name string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	id := fs.Int64("id", 0, "id")
	if err := fs.Parse(args); err != nil {
		return "", errUsage
	}
	if *id <= 0 {
		return "", errors.New("need -id")
	}
	return strconv.FormatInt(*id, 10), nil
}

// updateTicket sends patch and reports the resulting status. The server
// answers PUT with no body, so the ticket is read back.
func updateTicket(ctx context.Context, authed func() (*client, error), out io.Writer, id int64, patch map[string]any) error {
	c, err := authed()
	if err != nil {
		return err
	}
	path := "/tickets/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPut, path, patch, nil); err != nil {
		return err
	}
	var t ticket
	if err := c.do(ctx, http.MethodGet, path, nil, &t); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d %s\n", t.ID, t.status())
	return nil
}

func choose(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
