package config

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// Lua execution limits for configuration files.
const (
	luaCPULimit    = 10_000_000
	luaMemoryLimit = 50 * 1024 * 1024
)

// LuaConfigParser parses Lua configuration files. The file is executed by
// the Golua runtime and the meme.config table is read back, so a config can
// compute values, read environment variables with os.getenv, and so on.
type LuaConfigParser struct {
	runtime *rt.Runtime
	cleanup func()
	mu      sync.Mutex
}

// NewLuaConfigParser creates a new LuaConfigParser with a fresh Lua runtime.
func NewLuaConfigParser() (*LuaConfigParser, error) {
	return NewLuaConfigParserWithOutput(io.Discard)
}

// NewLuaConfigParserWithOutput creates a LuaConfigParser whose print output
// goes to stdout.
func NewLuaConfigParserWithOutput(stdout io.Writer) (*LuaConfigParser, error) {
	if stdout == nil {
		stdout = os.Stdout
	}

	runtime := rt.New(stdout)
	cleanup := lib.LoadAll(runtime)

	return &LuaConfigParser{
		runtime: runtime,
		cleanup: cleanup,
	}, nil
}

// Parse executes content and extracts the configuration from meme.config.
func (p *LuaConfigParser) Parse(content []byte) (*Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.initMemeGlobal()

	closure, err := p.runtime.CompileAndLoadLuaChunk(
		"config",
		content,
		rt.TableValue(p.runtime.GlobalEnv()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile Lua configuration: %w", err)
	}

	ctx := rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    luaCPULimit,
			Memory: luaMemoryLimit,
		},
	}
	p.runtime.PushContext(ctx)
	defer p.runtime.PopContext()

	thread := p.runtime.MainThread()
	if _, err := rt.Call1(thread, rt.FunctionValue(closure)); err != nil {
		return nil, fmt.Errorf("failed to execute Lua configuration: %w", err)
	}

	return p.extractConfig()
}

// initMemeGlobal resets the meme global so values from a previous parse
// do not leak into this one.
func (p *LuaConfigParser) initMemeGlobal() {
	memeTable := rt.NewTable()
	memeTable.Set(rt.StringValue("config"), rt.TableValue(rt.NewTable()))
	p.runtime.GlobalEnv().Set(rt.StringValue("meme"), rt.TableValue(memeTable))
}

func (p *LuaConfigParser) extractConfig() (*Config, error) {
	cfg := DefaultConfig()

	memeVal := p.runtime.GlobalEnv().Get(rt.StringValue("meme"))
	if memeVal == rt.NilValue {
		return &cfg, nil
	}
	memeTable, ok := memeVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("meme is not a table")
	}

	configVal := memeTable.Get(rt.StringValue("config"))
	if configVal == rt.NilValue {
		return &cfg, nil
	}
	configTable, ok := configVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("meme.config is not a table")
	}

	for _, k := range keys {
		v, present := getTableValue(configTable, k.Name, k.Kind)
		if !present {
			continue
		}
		if err := k.set(&cfg, v); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", k.Name, err)
		}
	}
	return &cfg, nil
}

// getTableValue reads key from table as a Go value of the given kind.
// Strings are accepted for every kind so "1.5" and "true" work.
func getTableValue(table *rt.Table, key string, kind Kind) (any, bool) {
	switch kind {
	case KindBool:
		if v := getTableBool(table, key); v != nil {
			return *v, true
		}
	case KindFloat, KindInt:
		if v := getTableFloat(table, key); v != nil {
			return *v, true
		}
		if s := getTableString(table, key); s != nil {
			return *s, true
		}
	default:
		if s := getTableString(table, key); s != nil {
			return *s, true
		}
		if f := getTableFloat(table, key); f != nil {
			return *f, true
		}
	}
	return nil, false
}

// Close releases resources associated with the parser's Lua runtime.
func (p *LuaConfigParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return nil
}

// getTableBool retrieves a boolean value from a Lua table.
// Returns nil if the key doesn't exist or is not a boolean.
func getTableBool(table *rt.Table, key string) *bool {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if b, ok := val.TryBool(); ok {
		return &b
	}

	// Handle string "true"/"false" for compatibility
	if s, ok := val.TryString(); ok {
		b := parseBool(s)
		return &b
	}

	return nil
}

// getTableString retrieves a string value from a Lua table.
func getTableString(table *rt.Table, key string) *string {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if s, ok := val.TryString(); ok {
		return &s
	}

	return nil
}

// getTableFloat retrieves a float64 value from a Lua table.
// Returns nil if the key doesn't exist or is not a number.
func getTableFloat(table *rt.Table, key string) *float64 {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if n, ok := val.TryInt(); ok {
		f := float64(n)
		return &f
	}
	if n, ok := val.TryFloat(); ok {
		return &n
	}

	return nil
}
