package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/blobs"
	"github.com/railstats/admin-console/pkg/jsonform"
	"github.com/railstats/admin-console/pkg/railref"
)

type FlattenCmd struct {
	File      string `arg:"" optional:"" help:"Document to flatten. Reads stdin when omitted." type:"existingfile"`
	Render    bool   `help:"Print the render kind and editor text of every field instead of JSON." short:"r"`
	KeepEmpty bool   `help:"Keep empty objects as fields." name:"keep-empty"`
}

func (c *FlattenCmd) Run(g *Globals) error {
	data, err := readInput(g, c.File)
	if err != nil {
		return err
	}

	doc, err := jsonform.Parse(data)
	if err != nil {
		return err
	}

	opts := []jsonform.Option{}
	if c.KeepEmpty {
		opts = append(opts, jsonform.KeepEmptyObjects())
	}

	form, err := jsonform.FlattenDocument(doc, opts...)
	if err != nil {
		return err
	}

	if !c.Render {
		flat, _ := form.MarshalJSON()
		indented, err := jsonform.Parse(flat)
		if err != nil {
			return err
		}
		fmt.Fprintln(g.Out, string(jsonform.MarshalIndent(indented)))
		return nil
	}

	form.Each(func(path string, v jsonform.Value) {
		kind := jsonform.Policy(path, v)
		text := strings.ReplaceAll(jsonform.EditorText(kind, v), "\n", `\n`)
		fmt.Fprintf(g.Out, "%s\t%s\t%s\n", path, kind, text)
	})

	return nil
}

type UnflattenCmd struct {
	File string `arg:"" optional:"" help:"Flat form to rebuild. Reads stdin when omitted." type:"existingfile"`
}

func (c *UnflattenCmd) Run(g *Globals) error {
	data, err := readInput(g, c.File)
	if err != nil {
		return err
	}

	flat, err := jsonform.Parse(data)
	if err != nil {
		return err
	}

	if flat.Kind() != jsonform.ObjectKind {
		return fmt.Errorf("a flat form must be a JSON object, got %s", flat.Kind())
	}

	form := jsonform.NewForm()
	flat.Object().Each(form.Set)

	log := logging.GetFromContext(g.Ctx)
	doc := jsonform.Unflatten(form, jsonform.OnConflict(func(path string, discarded jsonform.Value) {
		log.Warn("conflicting paths in form", slog.String("path", path), slog.String("discarded", string(jsonform.Marshal(discarded))))
	}))

	fmt.Fprintln(g.Out, string(jsonform.MarshalIndent(doc)))

	return nil
}

type ImportCmd struct {
	Dir    string `arg:"" help:"Directory with RRT documents." type:"existingdir"`
	DryRun bool   `help:"Validate the documents without uploading them." name:"dry-run"`
}

func (c *ImportCmd) Run(g *Globals) error {
	log := logging.GetFromContext(g.Ctx)

	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return err
	}

	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && railref.IsRootRRTCandidate(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var store blobs.Store
	if !c.DryRun {
		var closeStore func()
		store, closeStore, err = g.openStore(g.Ctx)
		if err != nil {
			return err
		}
		defer closeStore()
	}

	imported, skipped := 0, 0

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(c.Dir, name))
		if err != nil {
			return err
		}

		doc, err := jsonform.Parse(data)
		if err == nil {
			_, err = jsonform.FlattenDocument(doc, jsonform.OnDottedKey(func(path, key string) {
				log.Warn("member key contains a dot and will be nested when edited", slog.String("name", name), slog.String("path", path))
			}))
		}
		if err != nil {
			log.Warn("skipping document", slog.String("name", name), slog.String("err", err.Error()))
			skipped++
			continue
		}

		if store != nil {
			err = store.Put(g.Ctx, blobs.Join(railref.RRTFolder, name), jsonform.MarshalIndent(doc), "application/json")
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", name, err)
			}
		}

		log.Debug("document imported", slog.String("name", name))
		imported++
	}

	fmt.Fprintf(g.Out, "%d imported, %d skipped\n", imported, skipped)

	return nil
}
