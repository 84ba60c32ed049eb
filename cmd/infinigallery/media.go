package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/taigrr/infinigallery/pkg/access"
	"github.com/taigrr/infinigallery/pkg/media"
)

const (
	defaultManifest = "media.yaml"
	adminsVar       = "INFINIGALLERY_ADMINS"
)

// mediaFlags are shared by the media subcommands.
type mediaFlags struct {
	opts      *options
	uploadDir string
	publicURL string
	admins    string
}

func (m *mediaFlags) manifest() string {
	if m.opts.mediaPath != "" {
		return m.opts.mediaPath
	}
	return defaultManifest
}

func (m *mediaFlags) open() (*media.FileStore, error) {
	dir := m.uploadDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(m.manifest()), "uploads")
	}
	var storeOpts []media.StoreOption
	if m.publicURL != "" {
		storeOpts = append(storeOpts, media.WithPublicURL(m.publicURL))
	}
	return media.OpenFileStore(m.manifest(), dir, storeOpts...)
}

// authorize allows admin commands for the signed in identity
// ($INFINIGALLERY_USER) when it is on the allowlist.
func (m *mediaFlags) authorize(ctx context.Context) error {
	list := m.admins
	if list == "" {
		list = os.Getenv(adminsVar)
	}
	return access.Require(ctx, access.ParsePolicy(list), access.NewEnvSession(""))
}

// adminRun wraps an admin command: authorize, open the store, run.
func (m *mediaFlags) adminRun(fn func(cmd *cobra.Command, repo media.Repository, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := m.authorize(cmd.Context()); err != nil {
			return err
		}
		store, err := m.open()
		if err != nil {
			return err
		}
		return fn(cmd, store, args)
	}
}

func newMediaCmd(opts *options) *cobra.Command {
	m := &mediaFlags{opts: opts}
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Manage the portfolio media manifest",
		Long: `Manage the projects the gallery can show (see --media).

Listing is open to everyone. Changes require the identity in $INFINIGALLERY_USER
to be on the admin allowlist (--admins or $INFINIGALLERY_ADMINS).`,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&m.uploadDir, "uploads", "", "Upload directory (default: uploads/ next to the manifest)")
	pf.StringVar(&m.publicURL, "public-url", "", "Base URL uploads are served from")
	pf.StringVar(&m.admins, "admins", "", "Admin allowlist, comma separated")

	cmd.AddCommand(
		newMediaListCmd(m),
		newMediaAddCmd(m),
		newMediaUpdateCmd(m),
		newMediaRemoveCmd(m),
		newMediaUploadCmd(m),
	)
	return cmd
}

func newMediaListCmd(m *mediaFlags) *cobra.Command {
	var order string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseOrder(order)
			if err != nil {
				return err
			}
			store, err := m.open()
			if err != nil {
				return err
			}
			records, err := store.List(cmd.Context(), key)
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().StringVar(&order, "order", "display", "Sort order: display, created or title")
	return cmd
}

func parseOrder(s string) (media.OrderKey, error) {
	switch strings.ToLower(s) {
	case "", "display":
		return media.ByDisplayOrder, nil
	case "created":
		return media.ByCreated, nil
	case "title":
		return media.ByTitle, nil
	}
	return 0, fmt.Errorf("unknown order %q (use display, created or title)", s)
}

func printRecords(w io.Writer, records []media.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No projects yet.")
		return
	}
	for _, r := range records {
		extra := ""
		if n := len(r.Additional); n > 0 {
			extra = fmt.Sprintf(" +%d", n)
		}
		fmt.Fprintf(w, "%3d  %-36s  %-24s  %-5s%s  %s\n",
			r.DisplayOrder, r.ID, r.Title, r.Media.Kind, extra, r.Media.URL)
	}
}

// videoTypes covers video extensions missing from minimal mime tables.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
}

func contentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}

// mediaItems turns URLs into media, inferring the kind from the file
// extension.
func mediaItems(urls []string) []media.Media {
	items := make([]media.Media, 0, len(urls))
	for _, u := range urls {
		items = append(items, media.Media{URL: u, Kind: media.KindFromContentType(contentType(u))})
	}
	return items
}

// uploadFiles uploads local files and returns their URLs.
func uploadFiles(ctx context.Context, repo media.Repository, files []string) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, name := range files {
		u, err := uploadFile(ctx, repo, name)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func uploadFile(ctx context.Context, repo media.Repository, name string) (string, error) {
	f, err := os.Open(name)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return repo.Upload(ctx, filepath.Base(name), contentType(name), f)
}

func newMediaAddCmd(m *mediaFlags) *cobra.Command {
	var description string
	var urls, files []string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a project",
		Long:  "Add a project. Media come from --url and uploaded --file items, uploads first; the first item is the primary one.",
		Args:  cobra.ExactArgs(1),
		RunE: m.adminRun(func(cmd *cobra.Command, repo media.Repository, args []string) error {
			uploaded, err := uploadFiles(cmd.Context(), repo, files)
			if err != nil {
				return err
			}
			r, err := media.NewRecord(args[0], description, mediaItems(append(uploaded, urls...)))
			if err != nil {
				return err
			}
			created, err := repo.Create(cmd.Context(), r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", created.Title, created.ID)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVarP(&description, "description", "d", "", "Project description")
	f.StringArrayVar(&urls, "url", nil, "Media URL (repeatable)")
	f.StringArrayVar(&files, "file", nil, "Local file to upload (repeatable)")
	return cmd
}

func newMediaUpdateCmd(m *mediaFlags) *cobra.Command {
	var title, description string
	var urls, files []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a project",
		Long:  "Change a project's title, description or media. Given media replace all existing items.",
		Args:  cobra.ExactArgs(1),
		RunE: m.adminRun(func(cmd *cobra.Command, repo media.Repository, args []string) error {
			r, err := repo.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("title") {
				r.Title = strings.TrimSpace(title)
			}
			if cmd.Flags().Changed("description") {
				r.Description = strings.TrimSpace(description)
			}
			if len(urls)+len(files) > 0 {
				uploaded, err := uploadFiles(cmd.Context(), repo, files)
				if err != nil {
					return err
				}
				if err := r.SetItems(mediaItems(append(uploaded, urls...))); err != nil {
					return err
				}
			}
			updated, err := repo.Update(cmd.Context(), r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", updated.Title, updated.ID)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVarP(&title, "title", "t", "", "New title")
	f.StringVarP(&description, "description", "d", "", "New description")
	f.StringArrayVar(&urls, "url", nil, "Media URL (repeatable)")
	f.StringArrayVar(&files, "file", nil, "Local file to upload (repeatable)")
	return cmd
}

func newMediaRemoveCmd(m *mediaFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete projects",
		Args:    cobra.MinimumNArgs(1),
		RunE: m.adminRun(func(cmd *cobra.Command, repo media.Repository, args []string) error {
			for _, id := range args {
				if err := repo.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			return nil
		}),
	}
}

func newMediaUploadCmd(m *mediaFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload files and print their URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: m.adminRun(func(cmd *cobra.Command, repo media.Repository, args []string) error {
			urls, err := uploadFiles(cmd.Context(), repo, args)
			if err != nil {
				return err
			}
			for _, u := range urls {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		}),
	}
}
