package supervisor

import (
	"github.com/wasabiz/noah/pkg/debug"
	"github.com/wasabiz/noah/pkg/vmm"
)

func bit(v uint64, n uint) uint64 { return (v >> n) & 1 }

// checkVMEntry re-derives the Intel SDM guest-state checks after a
// VM-entry failure and logs every violated constraint, instead of
// leaving nothing but an opaque exit reason in the trace.
func (l *Loop) checkVMEntry() {
	controls := l.vmcs(vmm.VMCSCtrlVMEntryControls)
	cpuBased2 := l.vmcs(vmm.VMCSCtrlCPUBased2)

	unrestrictedGuest := bit(cpuBased2, 7)
	loadDebugControls := bit(controls, 2)
	ia32eModeGuest := bit(controls, 9)
	perfGlobalCtrl := bit(controls, 13)
	pat := bit(controls, 14)
	efer := bit(controls, 15)
	bndcfgs := bit(controls, 16)

	cr0 := l.vmcs(vmm.VMCSGuestCR0)
	cr4 := l.vmcs(vmm.VMCSGuestCR4)

	if unrestrictedGuest == 0 && bit(cr0, 31) == 1 && bit(cr0, 0) == 0 {
		debug.Warnk("vm-entry check: CR0.PG set without CR0.PE (cr0=%x)", cr0)
	}

	if loadDebugControls == 1 {
		dbgctl := l.vmcs(vmm.VMCSGuestIA32Debugctl)
		if dbgctl&^uint64(0b1101111111000011) != 0 || dbgctl > 65535 {
			debug.Warnk("vm-entry check: reserved IA32_DEBUGCTL bits set (%x)", dbgctl)
		}
		dr7 := l.vmcs(vmm.VMCSGuestDR7)
		if dr7 >= 1<<32 {
			debug.Warnk("vm-entry check: DR7 upper bits set (%x)", dr7)
		}
	}

	if ia32eModeGuest == 1 {
		if bit(cr0, 31) == 0 || bit(cr4, 5) == 0 {
			debug.Warnk("vm-entry check: IA-32e mode needs CR0.PG and CR4.PAE (cr0=%x cr4=%x)", cr0, cr4)
		}
	} else if bit(cr4, 17) == 1 {
		debug.Warnk("vm-entry check: CR4.PCIDE outside IA-32e mode (cr4=%x)", cr4)
	}

	// bits 63:52 and those beyond the physical address width must be 0
	if cr3 := l.vmcs(vmm.VMCSGuestCR3); cr3>>52 != 0 {
		debug.Warnk("vm-entry check: CR3 high bits set (%x)", cr3)
	}

	debug.Warnk("vm-entry check: IA32_SYSENTER_ESP/EIP canonicality not checked")

	if perfGlobalCtrl == 1 {
		if v := l.vmcs(vmm.VMCSGuestIA32PerfGlobCtrl); v != 0 {
			debug.Warnk("vm-entry check: reserved IA32_PERF_GLOBAL_CTRL bits set (%x)", v)
		}
	}

	if pat == 1 {
		v := l.vmcs(vmm.VMCSGuestIA32PAT)
		for i := 0; i < 8; i++ {
			b := byte(v >> (8 * i))
			switch b {
			case 0, 1, 4, 5, 6, 7:
			default:
				debug.Warnk("vm-entry check: invalid PAT entry %d: %x", i, b)
			}
		}
	}

	if efer == 1 {
		v := l.vmcs(vmm.VMCSGuestIA32EFER)
		if bit(v, 10) != ia32eModeGuest {
			debug.Warnk("vm-entry check: EFER.LMA disagrees with IA-32e mode (%x)", v)
		}
		if bit(cr0, 31) == 1 && bit(v, 10) != bit(v, 8) {
			debug.Warnk("vm-entry check: EFER.LMA disagrees with EFER.LME (%x)", v)
		}
	}

	if bndcfgs == 1 {
		debug.Warnk("vm-entry check: IA32_BNDCFGS not checked")
	}

	debug.Printk("vm-entry checks complete")
}
