package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// procfileLine starts keystone on the port Heroku assigns.
const procfileLine = "web: keystone serve --host 0.0.0.0 --port $PORT ."

// dotcloudService is the www service entry of dotcloud.yml.
var dotcloudService = [][2]string{
	{"type", "custom"},
	{"approot", "."},
	{"process", "keystone serve --host 0.0.0.0 --port $PORT_WWW ."},
}

var configurers = map[string]func(fs afero.Fs, dir string) ([]string, error){
	"heroku":   configureHeroku,
	"dotcloud": configureDotcloud,
}

var configureCmd = &cobra.Command{
	Use:   "configure heroku|dotcloud [app_dir]",
	Short: "Write deployment files for a hosting platform",
	Long: `Add the files a hosting platform needs to run the application in
app_dir, or the current directory. Existing files are extended, never
replaced, and running the command again changes nothing.

Examples:
  keystone configure heroku          # Adds the web process to ./Procfile
  keystone configure dotcloud ./site # Adds the www service to ./site/dotcloud.yml`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"heroku", "dotcloud"},
	RunE:      runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 1 {
		dir = args[1]
	}

	changed, err := configure(afero.NewOsFs(), args[0], dir)
	if err != nil {
		return err
	}

	platform := cases.Title(language.English).String(args[0])
	if len(changed) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is already configured in %s\n", platform, dir)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configured %s in %s:\n", platform, dir)
	for _, name := range changed {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}

	return nil
}

// configure writes the deployment files for platform into dir and returns
// the names of the files it changed.
func configure(fs afero.Fs, platform, dir string) ([]string, error) {
	fn, ok := configurers[strings.ToLower(platform)]
	if !ok {
		return nil, fmt.Errorf("unknown platform %q (supported: heroku, dotcloud)", platform)
	}

	info, err := fs.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("application directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("application directory %s is not a directory", dir)
	}

	return fn(fs, dir)
}

func configureHeroku(fs afero.Fs, dir string) ([]string, error) {
	added, err := ensureLine(fs, filepath.Join(dir, "Procfile"), procfileLine)
	if err != nil || !added {
		return nil, err
	}

	return []string{"Procfile"}, nil
}

// ensureLine appends line to the file unless some line already equals it.
func ensureLine(fs afero.Fs, name, line string) (bool, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if scanner.Text() == line {
			return false, nil
		}
	}

	f, err := fs.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(data) > 0 && data[len(data)-1] != '\n' {
		line = "\n" + line
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		return false, err
	}

	return true, nil
}

// configureDotcloud adds the www service and any of its missing keys,
// leaving other services and existing values alone.
func configureDotcloud(fs afero.Fs, dir string) ([]string, error) {
	name := filepath.Join(dir, "dotcloud.yml")

	data, err := afero.ReadFile(fs, name)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode}}}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: top level is not a mapping", name)
	}

	www, changed := ensureKey(root, "www", &yaml.Node{Kind: yaml.MappingNode})
	if www.Kind == yaml.ScalarNode && www.Tag == "!!null" {
		*www = yaml.Node{Kind: yaml.MappingNode}
		changed = true
	}
	if www.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: www is not a mapping", name)
	}
	for _, kv := range dotcloudService {
		_, added := ensureKey(www, kv[0], &yaml.Node{Kind: yaml.ScalarNode, Value: kv[1]})
		changed = changed || added
	}
	if !changed {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	if err := afero.WriteFile(fs, name, buf.Bytes(), 0o644); err != nil {
		return nil, err
	}

	return []string{"dotcloud.yml"}, nil
}

// ensureKey returns the value of key in mapping, adding value under key
// when it is missing.
func ensureKey(mapping *yaml.Node, key string, value *yaml.Node) (*yaml.Node, bool) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1], false
		}
	}

	mapping.Content = append(mapping.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)

	return value, true
}
