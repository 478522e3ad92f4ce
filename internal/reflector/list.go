package reflector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/kc1awv/m17-core/internal/logger"
)

// ReflectorInfo is one entry of the reflector directory shown to monitor
// clients.
type ReflectorInfo struct {
	Designator string `json:"designator"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	Slug       string `json:"slug"`
	Legacy     bool   `json:"legacy"`
}

type hostfile struct {
	Reflectors []hostfileReflector `json:"reflectors"`
}

type hostfileReflector struct {
	Designator string `json:"designator"`
	Name       string `json:"name"`
	IPv4       string `json:"ipv4"`
	IPv6       string `json:"ipv6"`
	Domain     string `json:"domain"`
	Modules    string `json:"modules"`
	Port       int    `json:"port"`
	Legacy     bool   `json:"legacy"`
}

// ListStore caches the reflector directory read from the M17_HOSTFILE
// JSON host file, reloading when the file changes.
type ListStore struct {
	mu            sync.RWMutex
	reflectorList []ReflectorInfo
	designatorMap map[string]string
	moduleMap     map[string][]string

	hostFilePath    string
	hostFileModTime time.Time
}

func NewListStore() *ListStore {
	return &ListStore{
		moduleMap: make(map[string][]string),
	}
}

func (ls *ListStore) Init() {
	ls.hostFilePath = os.Getenv("M17_HOSTFILE")
	if ls.hostFilePath == "" {
		log.Warn("M17_HOSTFILE not set; reflector list will be empty")
	}
}

func loadHostFile(ctx context.Context, path string, modTime time.Time) (*hostfile, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, time.Time{}, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	if !stat.ModTime().After(modTime) {
		return nil, stat.ModTime(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer f.Close()

	var hf hostfile
	if err := json.NewDecoder(f).Decode(&hf); err != nil {
		return nil, time.Time{}, err
	}
	return &hf, stat.ModTime(), nil
}

// Refresh reloads the host file if it changed on disk.
func (ls *ListStore) Refresh(ctx context.Context) {
	if ls.hostFilePath == "" || ctx.Err() != nil {
		return
	}

	hf, modTime, err := loadHostFile(ctx, ls.hostFilePath, ls.hostFileModTime)
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			log.Error("Error loading host file", "err", err, "path", ls.hostFilePath)
		}
		return
	}
	if hf == nil {
		return
	}

	var list []ReflectorInfo
	newModuleMap := make(map[string][]string)
	newDesignatorMap := make(map[string]string)

	for _, r := range hf.Reflectors {
		host := r.IPv4
		if host == "" {
			host = r.Domain
		}
		if host == "" && r.IPv6 != "" {
			host = fmt.Sprintf("[%s]", r.IPv6)
		}
		if host == "" {
			continue
		}
		addr := fmt.Sprintf("%s:%d", host, r.Port)
		slug := strings.ToLower(r.Designator)

		list = append(list, ReflectorInfo{
			Designator: r.Designator,
			Name:       r.Name,
			Address:    addr,
			Slug:       slug,
			Legacy:     r.Legacy,
		})

		newDesignatorMap[addr] = r.Designator

		var mods []string
		for _, m := range r.Modules {
			if m >= 'A' && m <= 'Z' {
				mods = append(mods, string(m))
			}
		}
		if len(mods) > 0 {
			sort.Strings(mods)
			newModuleMap[slug] = mods
		}
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Designator < list[j].Designator
	})

	ls.mu.Lock()
	ls.reflectorList = list
	ls.designatorMap = newDesignatorMap
	ls.moduleMap = newModuleMap
	ls.hostFileModTime = modTime
	ls.mu.Unlock()

	log.Info("Updated reflector list", "count", len(list))
}

// Modules returns the module list of a reflector by slug.
func (ls *ListStore) Modules(slug string) []string {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return append([]string(nil), ls.moduleMap[slug]...)
}

// Reflectors returns a copy of the directory.
func (ls *ListStore) Reflectors() []ReflectorInfo {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return append([]ReflectorInfo(nil), ls.reflectorList...)
}

// LookupDesignator maps a reflector address back to its designator.
func (ls *ListStore) LookupDesignator(addr string) string {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return ls.designatorMap[addr]
}

// StartUpdater refreshes the directory once and then every minute until
// the context ends.
func (ls *ListStore) StartUpdater(ctx context.Context) {
	ls.Refresh(ctx)
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ls.Refresh(ctx)
			}
		}
	}()
}
