package script

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/quill/internal/logging"
)

// unsafeGlobals load code from disk, from strings or from modules, bypassing
// the chunk the host chose to run.
var unsafeGlobals = []string{
	"require",
	"module",
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"collectgarbage",
}

// installSandbox strips unsafe globals and sends print to the logger.
func installSandbox(L *lua.LState, log *logging.Logger) {
	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		log.Info("%s", strings.Join(parts, "\t"))
		return 0
	}))
}
