package scripting_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/petheaven/internal/game/dice"
	"github.com/cory-johannsen/petheaven/internal/scripting"
)

func newTestManager(t testing.TB, limit int) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(dice.NewSeededSource(1), limit, zap.New(core))
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func TestManager_LoadDir_CallsHook(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	dir := writeTempLua(t, "hooks.lua", `
		function test_hook(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.LoadDir(dir))
	ret, err := mgr.CallHook("test_hook", lua.LNumber(3), lua.LNumber(4))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(7), ret)
}

func TestManager_NoVM_IsNoOp(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	ret, err := mgr.CallHook("anything")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 5, mgr.FoodDestroyed("apple", 5))
	assert.NotPanics(t, func() { mgr.LevelUp("cat", 2) })
}

func TestManager_MissingHook_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString(`-- no functions`))
	ret, err := mgr.CallHook("nonexistent_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_LoadDir_Errors(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	assert.Error(t, mgr.LoadDir(filepath.Join(t.TempDir(), "missing")))
	assert.Error(t, mgr.LoadDir(writeTempLua(t, "bad.lua", `function (`)))
}

func TestManager_FoodDestroyed_OverridesReward(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString(`
		function on_food_destroyed(template_id, reward)
			if template_id == "golden_apple" then
				return reward * 3
			end
			return nil
		end
	`))
	assert.Equal(t, 12, mgr.FoodDestroyed("golden_apple", 4))
	assert.Equal(t, 4, mgr.FoodDestroyed("apple", 4))
}

func TestManager_LevelUp_UsesEngineLog(t *testing.T) {
	mgr, logs := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString(`
		function on_level_up(pet_id, level)
			engine.log(pet_id .. " reached " .. level)
		end
	`))
	mgr.LevelUp("cat", 3)
	entries := logs.FilterMessage("script").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "cat reached 3", entries[0].ContextMap()["msg"])
}

func TestManager_RuntimeError_LoggedNotPropagated(t *testing.T) {
	mgr, logs := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString(`
		function on_food_destroyed(template_id, reward)
			error("boom")
		end
	`))
	assert.Equal(t, 2, mgr.FoodDestroyed("apple", 2))
	assert.Equal(t, 1, logs.FilterMessage("scripting: Lua runtime error").Len())
}

func TestManager_InstructionBudgetIsPerCall(t *testing.T) {
	mgr, logs := newTestManager(t, 500)
	require.NoError(t, mgr.LoadString(`
		function spin() while true do end end
		function small(n) local s = 0 for i = 1, n do s = s + i end return s end
	`))
	ret, err := mgr.CallHook("spin")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterMessage("scripting: Lua runtime error").Len())

	for i := 0; i < 20; i++ {
		ret, err = mgr.CallHook("small", lua.LNumber(10))
		require.NoError(t, err)
		assert.Equal(t, lua.LNumber(55), ret)
	}
}

func TestManager_ConcurrentCalls(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString(`function double(n) return n * 2 end`))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ret, err := mgr.CallHook("double", lua.LNumber(i))
			assert.NoError(t, err)
			assert.Equal(t, lua.LNumber(2*i), ret)
		}(i)
	}
	wg.Wait()
}

func TestManager_Property_EngineRandomInRange(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString(`function roll(lo, hi) return engine.random(lo, hi) end`))
	rapid.Check(t, func(rt *rapid.T) {
		lo := rapid.IntRange(-50, 50).Draw(rt, "lo")
		hi := lo + rapid.IntRange(0, 50).Draw(rt, "width")
		ret, err := mgr.CallHook("roll", lua.LNumber(lo), lua.LNumber(hi))
		require.NoError(rt, err)
		n, ok := ret.(lua.LNumber)
		require.True(rt, ok)
		assert.GreaterOrEqual(rt, int(n), lo)
		assert.LessOrEqual(rt, int(n), hi)
	})
}
