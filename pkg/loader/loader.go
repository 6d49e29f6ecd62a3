// Package loader names the surface of the ELF loader. The loader maps
// the executable (and its interpreter), builds the argv/envp/auxv
// stack, and installs the initial CPU state for the current thread.
// The implementation registers itself in DoExec at init time.
package loader

import (
	"github.com/wasabiz/noah/pkg/mm"
	"github.com/wasabiz/noah/pkg/vmm"
)

// ExecFunc installs a fresh memory map and CPU state for the guest
// executable at path. Returns 0 or a negative Linux errno.
type ExecFunc func(vcpu vmm.VCPU, m mm.Memory, path string, argv, envp []string) int64

// DoExec is the registered loader entry point; nil when no loader is
// linked in.
var DoExec ExecFunc
