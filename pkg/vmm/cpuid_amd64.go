package vmm

// HostCPUID executes CPUID on the host with the given leaf and subleaf.
// CPUID exits are reflected back to the guest with host values, so the
// guest sees the feature set of the silicon it actually runs on.
func HostCPUID(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32)
