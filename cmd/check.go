package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/keystone/internal/errors"
	"github.com/conneroisu/keystone/internal/tmpl"
	"github.com/conneroisu/keystone/internal/view"
)

var checkCmd = &cobra.Command{
	Use:   "check [app_dir]",
	Short: "Compile every template of an application",
	Long: `Parse every .ks template below app_dir, or the current directory, and
compile its view code. Hidden directories are skipped. The command fails
if any template does not compile.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	results, err := checkTemplates(afero.NewOsFs(), cfg.App.Dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if r.Err == nil {
			fmt.Fprintf(out, "ok    %s\n", r.Name)
			continue
		}

		failed++
		fmt.Fprintf(out, "FAIL  %s\n      %v\n", r.Name, r.Err)
		suggestions := errors.TemplateError(r.Err, &errors.SuggestionContext{AppDir: cfg.App.Dir})
		if len(suggestions) > 0 {
			fmt.Fprint(out, errors.FormatSuggestions("", suggestions))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d templates failed", failed, len(results))
	}
	fmt.Fprintf(out, "%d templates compiled\n", len(results))

	return nil
}

// checkResult is the outcome of loading one template.
type checkResult struct {
	Name string
	Err  error
}

// checkTemplates loads every template below dir, in lexical order.
func checkTemplates(afs afero.Fs, dir string) ([]checkResult, error) {
	templates := tmpl.NewCache(afs, dir, view.NewCompiler(dir).Compile)

	var results []checkResult
	err := afero.Walk(afs, dir, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(info.Name(), tmpl.Extension) {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		_, loadErr := templates.Get(rel)
		results = append(results, checkResult{Name: rel, Err: loadErr})

		return nil
	})

	return results, err
}
