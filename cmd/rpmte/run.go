package rpmte

import (
	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/mkulik-rh/rpm/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type runOptions struct {
	relocate      []string
	excludePath   []string
	erase         []string
	upgrade       bool
	test          bool
	justDB        bool
	noScripts     bool
	noCollections bool
	noDeps        bool
}

// flags returns the transaction flags requested on the command line
func (o *runOptions) flags() types.TransFlags {
	flags := types.TransNone
	if o.test {
		flags |= types.TransTest
	}
	if o.justDB {
		flags |= types.TransJustDB
	}
	if o.noScripts {
		flags |= types.TransNoScripts
	}
	if o.noCollections {
		flags |= types.TransNoCollections
	}
	return flags
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:     "run [flags] [PACKAGE...]",
		Short:   MsgRunShort,
		Long:    MsgRunLong,
		Example: MsgRunExample,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(opts.erase) == 0 {
				return errors.New(errors.ErrInvalidInput, MsgErrNoPackages)
			}
			return runTransaction(cmd, global, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.relocate, "relocate", nil, MsgFlagRelocate)
	f.StringArrayVar(&opts.excludePath, "excludepath", nil, MsgFlagExcludePath)
	f.StringArrayVarP(&opts.erase, "erase", "e", nil, MsgFlagErase)
	f.BoolVarP(&opts.upgrade, "upgrade", "U", false, MsgFlagUpgrade)
	f.BoolVar(&opts.test, "test", false, MsgFlagTest)
	f.BoolVar(&opts.justDB, "justdb", false, MsgFlagJustDB)
	f.BoolVar(&opts.noScripts, "noscripts", false, MsgFlagNoScripts)
	f.BoolVar(&opts.noCollections, "nocollections", false, MsgFlagNoCollections)
	f.BoolVar(&opts.noDeps, "nodeps", false, MsgFlagNoDeps)
	return cmd
}

func runTransaction(cmd *cobra.Command, global *globalOptions, opts *runOptions, args []string) error {
	relocs, err := parseRelocations(opts.relocate, opts.excludePath)
	if err != nil {
		return err
	}

	s, err := openSession(cmd, global, opts.flags())
	if err != nil {
		return err
	}
	defer s.Close()

	for _, path := range args {
		_, h, err := s.addPackage(path, opts.upgrade, relocs)
		if err != nil {
			return err
		}
		h.Free()
	}
	for _, name := range opts.erase {
		if err := s.addErasures(name); err != nil {
			return err
		}
	}

	if _, err := s.ts.Check(); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "dependency check failed")
	}
	report := ui.RunReport{
		Flags:    s.ts.Flags().String(),
		Problems: problemStrings(s.ts.Problems()),
	}
	if len(report.Problems) > 0 && !opts.noDeps {
		if err := s.out.Run(report); err != nil {
			return err
		}
		return errors.Newf(errors.ErrInvalidInput, MsgErrCheckFailed, len(report.Problems))
	}

	failed, err := s.ts.Run(cmd.Context())
	for _, e := range s.ts.Elements(types.AnyElement) {
		report.Elements = append(report.Elements, ui.ElementResult{
			NEVRA:  e.NEVRA(),
			Type:   e.TypeString(),
			Failed: e.Failed() != 0,
		})
	}
	report.Failed = failed
	if renderErr := s.out.Run(report); renderErr != nil {
		log.Error().Err(renderErr).Msg("Failed to render run report")
	}

	if err != nil {
		return err
	}
	if failed > 0 {
		return errors.Newf(errors.ErrElementFailed, MsgErrRunFailed, failed).WithDetail("failed", failed)
	}
	return nil
}
