// Package spec loads YAML launch manifests for the cobalt CLI.
package spec

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Launch describes one process launch: the command to run, where to run it,
// its environment and optional stdout/stderr capture paths. Unset fields
// inherit from the parent: current working directory, current environment,
// the parent's standard streams.
type Launch struct {
	Command     []string          `yaml:"command"`
	Workdir     string            `yaml:"workdir"`
	Env         map[string]string `yaml:"env"`
	EnvFromFile string            `yaml:"envFromFile"`
	Stdout      string            `yaml:"stdout"`
	Stderr      string            `yaml:"stderr"`
}

// Load reads a launch manifest from the provided path. Relative paths in
// the manifest resolve against the manifest's directory; values are
// expanded with $VAR substitution. Inline env entries win over entries from
// envFromFile.
func Load(path string) (*Launch, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	var doc Launch
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}

	if len(doc.Command) == 0 {
		return nil, fmt.Errorf("%s: manifest requires a command", absPath)
	}

	base := filepath.Dir(absPath)
	doc.Workdir = resolvePath(base, os.ExpandEnv(doc.Workdir))
	doc.Stdout = resolveOptionalPath(base, os.ExpandEnv(doc.Stdout))
	doc.Stderr = resolveOptionalPath(base, os.ExpandEnv(doc.Stderr))

	var fileEnv map[string]string
	if doc.EnvFromFile != "" {
		doc.EnvFromFile = resolvePath(base, os.ExpandEnv(doc.EnvFromFile))
		fileEnv, err = loadEnvFile(doc.EnvFromFile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", absPath, err)
		}
	}

	merged := make(map[string]string, len(fileEnv)+len(doc.Env))
	for k, v := range fileEnv {
		merged[k] = v
	}
	for k, v := range doc.Env {
		merged[k] = os.ExpandEnv(v)
	}
	if len(merged) > 0 {
		doc.Env = merged
	} else {
		doc.Env = nil
	}

	return &doc, nil
}

// Environ merges the manifest's environment over the parent's, returning
// nil when the manifest adds nothing so launch paths can inherit as-is.
func (l *Launch) Environ() []string {
	if len(l.Env) == 0 {
		return nil
	}
	env := os.Environ()
	keys := make([]string, 0, len(l.Env))
	for k := range l.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+l.Env[k])
	}
	return env
}

func resolvePath(base, path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}

func resolveOptionalPath(base, path string) string {
	if path == "" {
		return ""
	}
	return resolvePath(base, path)
}

func loadEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load env file %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	values := make(map[string]string)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		if strings.HasPrefix(raw, "export ") {
			raw = strings.TrimSpace(raw[len("export "):])
		}
		sep := strings.IndexRune(raw, '=')
		if sep <= 0 {
			return nil, fmt.Errorf("load env file %q: invalid line %d", path, lineNo)
		}
		key := strings.TrimSpace(raw[:sep])
		if key == "" {
			return nil, fmt.Errorf("load env file %q: invalid key on line %d", path, lineNo)
		}
		value := strings.TrimSpace(raw[sep+1:])
		if strings.HasPrefix(value, "\"") {
			if len(value) < 2 || value[len(value)-1] != '"' {
				return nil, fmt.Errorf("load env file %q: unmatched quote on line %d", path, lineNo)
			}
			unquoted, err := strconv.Unquote(value)
			if err != nil {
				return nil, fmt.Errorf("load env file %q: parse value for %s on line %d: %w", path, key, lineNo, err)
			}
			value = unquoted
		} else if strings.HasPrefix(value, "'") {
			if len(value) < 2 || value[len(value)-1] != '\'' {
				return nil, fmt.Errorf("load env file %q: unmatched quote on line %d", path, lineNo)
			}
			value = value[1 : len(value)-1]
		} else if comment := strings.IndexRune(value, '#'); comment >= 0 {
			value = strings.TrimSpace(value[:comment])
		}
		values[key] = os.ExpandEnv(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("load env file %q: %w", path, err)
	}
	return values, nil
}
