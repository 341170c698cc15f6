// Package prompts holds the system prompts for each classification call
// site. Defaults are embedded; a directory may override any of them.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hunchagency/dot/internal/oracle"
)

//go:embed defaults/*.txt
var defaults embed.FS

// File names, one per call site.
const (
	RoutingFile  = "routing.txt"
	TriageFile   = "triage.txt"
	UpdateFile   = "update.txt"
	DispatchFile = "dispatch.txt"
)

// Set is the prompt text for every call site.
type Set struct {
	Routing  string
	Triage   string
	Update   string
	Dispatch string
}

// Default returns the embedded prompts.
func Default() Set {
	set, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("embedded prompts: %v", err))
	}
	return set
}

// Load reads the embedded prompts, replacing any that exist in dir. An
// empty dir uses the embedded prompts only.
func Load(dir string) (Set, error) {
	var set Set
	targets := []struct {
		name string
		dst  *string
	}{
		{RoutingFile, &set.Routing},
		{TriageFile, &set.Triage},
		{UpdateFile, &set.Update},
		{DispatchFile, &set.Dispatch},
	}
	for _, target := range targets {
		text, err := read(dir, target.name)
		if err != nil {
			return Set{}, err
		}
		*target.dst = text
	}
	return set, nil
}

func read(dir, name string) (string, error) {
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return checked(name, data)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("reading prompt %s: %w", name, err)
		}
	}
	data, err := defaults.ReadFile("defaults/" + name)
	if err != nil {
		return "", fmt.Errorf("reading embedded prompt %s: %w", name, err)
	}
	return checked(name, data)
}

func checked(name string, data []byte) (string, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("prompt %s is empty", name)
	}
	return text, nil
}

// RoutingIntent returns the routing classification policy.
func (s Set) RoutingIntent() oracle.Intent {
	return oracle.RoutingIntent(s.Routing)
}

// TriageIntent returns the triage classification policy.
func (s Set) TriageIntent() oracle.Intent {
	return oracle.TriageIntent(s.Triage)
}

// UpdateIntent returns the status update classification policy.
func (s Set) UpdateIntent() oracle.Intent {
	return oracle.UpdateIntent(s.Update)
}

// DispatchIntent returns the dispatch classification policy.
func (s Set) DispatchIntent() oracle.Intent {
	return oracle.DispatchIntent(s.Dispatch)
}
