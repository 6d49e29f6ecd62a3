//go:build darwin

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/wasabiz/noah/pkg/conv"
	"github.com/wasabiz/noah/pkg/debug"
	"github.com/wasabiz/noah/pkg/loader"
	"github.com/wasabiz/noah/pkg/mm"
	"github.com/wasabiz/noah/pkg/proc"
	"github.com/wasabiz/noah/pkg/supervisor"
	"github.com/wasabiz/noah/pkg/vfs"
	"github.com/wasabiz/noah/pkg/vmm"
)

type opts struct {
	printkPath string
	warnkPath  string
	stracePath string
	root       string
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "noah [-o output] [-w warning] [-s strace] -m /virtual/filesystem/root executable [args...]",
		Short: "Run unmodified Linux x86-64 binaries under hardware virtualization",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(o, args)
		},
	}

	// guest flags must flow through untouched
	root.Flags().SetInterspersed(false)
	root.Flags().StringVarP(&o.printkPath, "output", "o", "", "write the kernel-style trace to this file")
	root.Flags().StringVarP(&o.warnkPath, "warning", "w", "", "write warnings to this file")
	root.Flags().StringVarP(&o.stracePath, "strace", "s", "", "write a syscall trace to this file")
	root.Flags().StringVarP(&o.root, "mnt", "m", "", "host directory serving as the guest's / (required)")
	root.MarkFlagRequired("mnt")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "noah: %v\n", err)
		os.Exit(1)
	}
}

// checkPlatform refuses to start without the hypervisor capability.
func checkPlatform() error {
	v, err := unix.SysctlUint32("kern.hv_support")
	if err != nil {
		return errors.Wrap(err, "sysctl kern.hv_support")
	}
	if v == 0 {
		return errors.New("hardware virtualization is not supported on this machine")
	}
	return nil
}

func run(o opts, args []string) error {
	suid := unix.Geteuid()
	proc.DropPrivilege()

	if err := checkPlatform(); err != nil {
		return err
	}

	// the root is opened through its canonicalised absolute path; the flag
	// value is kept only for error messages
	rootDir, err := filepath.Abs(o.root)
	if err != nil {
		return errors.Wrapf(err, "invalid --mnt %q", o.root)
	}
	if st, err := os.Stat(rootDir); err != nil || !st.IsDir() {
		return errors.Errorf("invalid --mnt %q: not a directory", o.root)
	}

	sinks := []struct {
		path string
		init func(string) error
	}{
		{o.printkPath, debug.InitPrintk},
		{o.warnkPath, debug.InitWarnk},
		{o.stracePath, debug.InitStrace},
	}
	for _, s := range sinks {
		if s.path == "" {
			continue
		}
		if err := s.init(s.path); err != nil {
			return errors.Wrap(err, "open debug log")
		}
	}

	if vmm.NewVCPU == nil || mm.NewMemory == nil || loader.DoExec == nil {
		return errors.New("hypervisor binding, memory manager or loader not linked into this build")
	}

	vcpu, err := vmm.NewVCPU()
	if err != nil {
		return errors.Wrap(err, "create vcpu")
	}
	memory, err := mm.NewMemory()
	if err != nil {
		return errors.Wrap(err, "create guest address space")
	}

	rootfd, err := unix.Open(rootDir, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return errors.Wrap(err, "could not open initial root directory")
	}

	v := vfs.NewHost(rootfd)
	for fd := 0; fd <= 2; fd++ {
		v.ExposeHostFD(fd)
	}

	p, task := proc.New(memory, v, os.Getpid())
	p.Cred.Init(unix.Getuid(), unix.Geteuid(), suid)

	if r := loader.DoExec(vcpu, memory, args[0], args, os.Environ()); r < 0 {
		return errors.Wrapf(conv.ErrnoToDarwin(int(-r)), "exec %s", args[0])
	}

	loop := &supervisor.Loop{
		VCPU: vcpu,
		MM:   memory,
		Proc: p,
		Task: task,
		OnExit: func(status int) {
			os.Exit(status)
		},
	}
	if err := loop.Run(false); err != nil {
		return errors.Wrap(err, "supervisor")
	}
	return nil
}
