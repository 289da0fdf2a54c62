package story

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	structureFile = "structure.json"
	langDir       = "lang"
	episodesDir   = "episodes"
)

// ErrInvalidID is returned for story ids and language codes that would
// escape the stories directory.
var ErrInvalidID = errors.New("invalid story id")

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Store handles story directory operations
type Store struct {
	root string
}

// NewStore creates a store rooted at the stories directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the stories directory.
func (s *Store) Root() string {
	return s.root
}

func checkName(name string) error {
	if !validName.MatchString(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidID, name)
	}
	return nil
}

// StoryPath returns the directory of a story.
func (s *Store) StoryPath(id string) (string, error) {
	if err := checkName(id); err != nil {
		return "", err
	}
	return filepath.Join(s.root, id), nil
}

// ListStories returns the ids of all directories holding a structure file.
func (s *Store) ListStories() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("dir", s.root).Msg("Stories directory does not exist")
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read stories directory: %w", err)
	}

	stories := []string{}
	for _, entry := range entries {
		if !entry.IsDir() || checkName(entry.Name()) != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, entry.Name(), structureFile)); err == nil {
			stories = append(stories, entry.Name())
		}
	}
	return stories, nil
}

// Exists checks if a story has a structure file
func (s *Store) Exists(id string) bool {
	dir, err := s.StoryPath(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, structureFile))
	return err == nil
}

// ListLanguages returns the language codes that have a translation file.
func (s *Store) ListLanguages(id string) ([]string, error) {
	dir, err := s.StoryPath(id)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(dir, langDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read language directory: %w", err)
	}

	codes := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			codes = append(codes, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	sort.Strings(codes)
	return codes, nil
}

func (s *Store) structurePath(id string) (string, error) {
	dir, err := s.StoryPath(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, structureFile), nil
}

func (s *Store) languagePath(id, code string) (string, error) {
	dir, err := s.StoryPath(id)
	if err != nil {
		return "", err
	}
	if err := checkName(code); err != nil {
		return "", err
	}
	return filepath.Join(dir, langDir, code+".json"), nil
}

// LoadStructure reads stories/<id>/structure.json.
func (s *Store) LoadStructure(id string) (*Document, error) {
	path, err := s.structurePath(id)
	if err != nil {
		return nil, err
	}
	return loadDocument(path)
}

// SaveStructure replaces stories/<id>/structure.json atomically.
func (s *Store) SaveStructure(id string, doc *Document) error {
	path, err := s.structurePath(id)
	if err != nil {
		return err
	}
	return saveDocument(path, doc)
}

// LoadLanguage reads stories/<id>/lang/<code>.json.
func (s *Store) LoadLanguage(id, code string) (*Document, error) {
	path, err := s.languagePath(id, code)
	if err != nil {
		return nil, err
	}
	return loadDocument(path)
}

// SaveLanguage replaces stories/<id>/lang/<code>.json atomically.
func (s *Store) SaveLanguage(id, code string, doc *Document) error {
	path, err := s.languagePath(id, code)
	if err != nil {
		return err
	}
	return saveDocument(path, doc)
}

// EpisodePath returns the raw text file of the nth unit (1-based), looked up
// in dir or, when dir is empty, in the story's episodes directory.
func (s *Store) EpisodePath(id, dir string, n int) (string, error) {
	if dir == "" {
		storyDir, err := s.StoryPath(id)
		if err != nil {
			return "", err
		}
		dir = filepath.Join(storyDir, episodesDir)
	}
	return filepath.Join(dir, fmt.Sprintf("episode_%d.txt", n)), nil
}

// ReadEpisode reads the raw text of the nth unit.
func (s *Store) ReadEpisode(id, dir string, n int) (string, error) {
	path, err := s.EpisodePath(id, dir, n)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read episode %d: %w", n, err)
	}
	return string(b), nil
}

func loadDocument(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	doc, err := ParseDocument(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func saveDocument(path string, doc *Document) error {
	b, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := WriteFileAtomic(path, b, 0644); err != nil {
		return err
	}
	log.Debug().Str("path", path).Msg("Saved document")
	return nil
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it into place, so readers never see a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tmp.Name()
	defer func() {
		_ = os.Remove(name)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(name, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
