// Command drivedocs is a small CLI over the DriveDocs data layer: log in,
// browse posts, inspect the account. It exists mainly to exercise the
// client stack end to end against a live API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/DriveDocs-Network/data_layer/account"
	"github.com/DriveDocs-Network/data_layer/auth"
	"github.com/DriveDocs-Network/data_layer/catalog"
	"github.com/DriveDocs-Network/data_layer/client"
	"github.com/DriveDocs-Network/data_layer/internal/config"
	"github.com/DriveDocs-Network/data_layer/internal/logging"
	"github.com/DriveDocs-Network/data_layer/notify"
	"github.com/DriveDocs-Network/data_layer/posts"
	"github.com/DriveDocs-Network/data_layer/sessionstore"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: drivedocs [flags] <command> [args]

Commands:
  login <email>          log in (password read from DRIVEDOCS_PASSWORD)
  logout                 log out and clear the stored session
  posts [page]           list a page of posts
  post <id>              show one post with its content sections
  account                show the logged-in account
  models                 list the vehicle model catalog
  filters                list the available post filters

Flags:`)
	flag.PrintDefaults()
}

func main() {
	var (
		envFile    = flag.String("env", ".env", "Path to .env file (optional)")
		configPath = flag.String("config", "config/drivedocs.yaml", "Path to configuration file")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	// Missing .env is fine; configuration can come from the YAML file or
	// real environment variables.
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("load env (%s): %v", *envFile, err)
	}

	cfg, err := config.LoadFromPath(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	c, err := client.New(client.Config{
		BaseURL:           cfg.APIURL,
		Storage:           sessionstore.NewFileStorage(cfg.SessionFile),
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		RequestBurst:      cfg.RequestBurst,
		Resilience:        cfg.Resilience,
		Logger:            logger,
	})
	if err != nil {
		log.Fatalf("create client: %v", err)
	}

	ctx := context.Background()
	if err := c.Sessions().Initialize(ctx); err != nil {
		log.Fatalf("restore session: %v", err)
	}

	toasts := notify.NewQueue(0)
	defer toasts.Close()

	if err := run(ctx, c, toasts, flag.Args()); err != nil {
		for _, t := range toasts.Toasts() {
			fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", t.Level, t.Title, t.Message)
		}
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

func run(ctx context.Context, c *client.Client, toasts *notify.Queue, args []string) error {
	switch cmd := args[0]; cmd {
	case "login":
		if len(args) < 2 {
			return fmt.Errorf("usage: login <email>")
		}
		password := os.Getenv("DRIVEDOCS_PASSWORD")
		if password == "" {
			return fmt.Errorf("DRIVEDOCS_PASSWORD is not set")
		}
		_, err := auth.NewService(c).Login(ctx, auth.Credentials{
			Email:    args[1],
			Password: password,
		})
		if err != nil {
			return err
		}
		fmt.Println("logged in")
		return nil

	case "logout":
		if err := auth.NewService(c).Logout(ctx); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil

	case "posts":
		opts := &posts.ListOptions{Sort: posts.SortNewest}
		if len(args) > 1 {
			page, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid page %q", args[1])
			}
			opts.Page = page
		}
		state := posts.NewState(posts.NewService(c), toasts, nil, logging.Nop())
		if err := state.FetchPosts(ctx, opts); err != nil {
			return err
		}
		for _, p := range state.Posts() {
			fmt.Printf("#%d  %-40s  %s  +%d/-%d  %d comments\n",
				p.ID, p.Title, p.Author.Name, p.Likes, p.Dislikes, len(p.Comments))
		}
		if meta := state.Meta(); meta != nil {
			fmt.Printf("page %d of %d posts\n", meta.Page, meta.Total)
		}
		return nil

	case "post":
		if len(args) < 2 {
			return fmt.Errorf("usage: post <id>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid post id %q", args[1])
		}
		state := posts.NewState(posts.NewService(c), toasts, nil, logging.Nop())
		if err := state.FetchPost(ctx, id); err != nil {
			return err
		}
		p := state.Detail(id)
		fmt.Printf("%s\nby %s on %s  +%d/-%d\n\n", p.Title, p.Author.Name, p.DateCreated, p.Likes, p.Dislikes)
		for _, s := range p.Content {
			switch s.Type {
			case posts.SectionText:
				fmt.Println(s.Content)
			case posts.SectionImage:
				fmt.Printf("[image: %s]\n", s.File)
			}
		}
		fmt.Printf("\n%d comments\n", len(p.Comments))
		return nil

	case "account":
		acc, err := account.NewService(c).Fetch(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("#%d %s <%s> joined %s\n", acc.ID, acc.Name, acc.Email, acc.DateCreated)
		return nil

	case "models":
		models, err := catalog.NewModelsState(c).Fetch(ctx)
		if err != nil {
			return err
		}
		for _, m := range models {
			fmt.Printf("%s %s %s (%d-%d)  %d posts\n",
				m.Brand.Name, m.Model, m.Generation, m.ProductionStart, m.ProductionEnd, m.PostsCount)
		}
		return nil

	case "filters":
		filters, err := catalog.NewFiltersState(c).Fetch(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d brand filters, %d author filters\n", len(filters.Brands), len(filters.Authors))
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
