package rpmte

import (
	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/te"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/mkulik-rh/rpm/pkg/ui"
	"github.com/spf13/cobra"
)

type inspectOptions struct {
	relocate    []string
	excludePath []string
	upgrade     bool
}

func newInspectCmd(global *globalOptions) *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:     "inspect [flags] PACKAGE...",
		Short:   MsgInspectShort,
		Long:    MsgInspectLong,
		Example: MsgInspectExample,
		GroupID: "core",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, global, opts, args)
		},
	}

	cmd.Flags().StringArrayVar(&opts.relocate, "relocate", nil, MsgFlagRelocate)
	cmd.Flags().StringArrayVar(&opts.excludePath, "excludepath", nil, MsgFlagExcludePath)
	cmd.Flags().BoolVarP(&opts.upgrade, "upgrade", "U", false, MsgFlagUpgrade)
	return cmd
}

func runInspect(cmd *cobra.Command, global *globalOptions, opts *inspectOptions, args []string) error {
	relocs, err := parseRelocations(opts.relocate, opts.excludePath)
	if err != nil {
		return err
	}

	s, err := openSession(cmd, global, types.TransTest)
	if err != nil {
		return err
	}
	defer s.Close()

	headers := make(map[*te.Element]*header.Header, len(args))
	defer func() {
		for _, h := range headers {
			h.Free()
		}
	}()

	for _, path := range args {
		e, h, err := s.addPackage(path, opts.upgrade, relocs)
		if err != nil {
			return err
		}
		headers[e] = h
	}

	if _, err := s.ts.Check(); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "dependency check failed")
	}

	var pkgs []ui.Package
	for _, e := range s.ts.Elements(types.AnyElement) {
		pkgs = append(pkgs, describeElement(e, headers[e]))
	}
	return s.out.Packages(pkgs)
}

// describeElement collects what inspect shows of an element. h is the
// header of install elements, nil for erasures.
func describeElement(e *te.Element, h *header.Header) ui.Package {
	p := ui.Package{
		Key:         e.Key(),
		NEVRA:       e.NEVRA(),
		Type:        e.TypeString(),
		Color:       e.Color(),
		Source:      e.IsSource(),
		Files:       e.FI().Count(),
		Collections: e.Collections(),
		Problems:    problemStrings(e.Problems()),
		Header:      h,
	}
	for _, r := range e.Relocations() {
		p.Relocations = append(p.Relocations, ui.Relocation{Old: r.OldPath, New: r.NewPath})
	}
	return p
}
