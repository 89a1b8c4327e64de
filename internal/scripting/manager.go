package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/petheaven/internal/game/dice"
)

// Hook names looked up as Lua globals.
const (
	HookFoodDestroyed = "on_food_destroyed"
	HookLevelUp       = "on_level_up"
)

// Manager owns one sandboxed LState and dispatches hooks into it.
// All methods are safe for concurrent use; calls into the VM are serialised.
//
// A Manager with no loaded scripts is a no-op.
type Manager struct {
	mu        sync.Mutex
	state     *lua.LState
	instLimit int
	src       dice.Source
	logger    *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: src and logger must be non-nil; instLimit >= 0 (0 = default).
// Postcondition: Returns a Manager with no VM.
func NewManager(src dice.Source, instLimit int, logger *zap.Logger) *Manager {
	return &Manager{src: src, instLimit: instLimit, logger: logger}
}

// LoadDir creates a fresh VM, registers the engine module, then executes every
// *.lua file in scriptDir in lexicographic order. It replaces any earlier VM.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Returns an error on read or Lua load failure; the previous VM
// stays in place in that case.
func (m *Manager) LoadDir(scriptDir string) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	return m.load(func(L *lua.LState) error {
		for _, path := range luaFiles {
			if err := L.DoFile(path); err != nil {
				return fmt.Errorf("scripting: loading %q: %w", path, err)
			}
		}
		return nil
	})
}

// LoadString replaces the VM with one running src.
func (m *Manager) LoadString(src string) error {
	return m.load(func(L *lua.LState) error {
		if err := L.DoString(src); err != nil {
			return fmt.Errorf("scripting: loading inline script: %w", err)
		}
		return nil
	})
}

func (m *Manager) load(run func(L *lua.LState) error) error {
	L := NewSandboxedState(m.instLimit)
	m.RegisterModules(L)
	cancel := budget(L, m.instLimit)
	err := run(L)
	cancel()
	if err != nil {
		L.Close()
		return err
	}

	m.mu.Lock()
	old := m.state
	m.state = L
	m.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if no
// VM is loaded or the hook is not defined. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	L := m.state
	if L == nil {
		return lua.LNil, nil
	}
	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	cancel := budget(L, m.instLimit)
	defer cancel()
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// FoodDestroyed runs on_food_destroyed(template_id, reward). A numeric return
// value replaces the reward; anything else keeps it.
func (m *Manager) FoodDestroyed(templateID string, reward int) int {
	ret, _ := m.CallHook(HookFoodDestroyed, lua.LString(templateID), lua.LNumber(reward))
	if n, ok := ret.(lua.LNumber); ok {
		return int(n)
	}
	return reward
}

// LevelUp runs on_level_up(pet_id, level).
func (m *Manager) LevelUp(petID string, level int) {
	_, _ = m.CallHook(HookLevelUp, lua.LString(petID), lua.LNumber(level))
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
}
