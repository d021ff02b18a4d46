package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/ports"
)

const defaultActor = "plaza-admin"

// profileAdmin is the subset of *service.ProfileService the CLI drives.
type profileAdmin interface {
	ListByStatus(ctx context.Context, status *domainauth.ApprovalStatus, limit, offset int) ([]*domainauth.Profile, error)
	Approve(ctx context.Context, userID, actor string) (*domainauth.Profile, error)
	Reject(ctx context.Context, userID, actor, reason string) (*domainauth.Profile, error)
	ChangeRole(ctx context.Context, userID, actor, role string) (*domainauth.Profile, error)
}

type listProfilesOptions struct {
	Status  *domainauth.ApprovalStatus
	Limit   int
	Offset  int
	RawJSON bool
}

type changeOptions struct {
	UserID string
	Actor  string
	Reason string
	Role   string
}

var errUserIDRequired = errors.New("user id is required as the first argument")

func parseListProfilesFlags(args []string) (listProfilesOptions, error) {
	fs := flag.NewFlagSet("list-profiles", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		opts   listProfilesOptions
		status string
	)
	fs.StringVar(&status, "status", "", "Filter by approval status (pending, approved, rejected)")
	fs.IntVar(&opts.Limit, "limit", ports.DefaultProfileListLimit, "Maximum number of profiles to return")
	fs.IntVar(&opts.Offset, "offset", 0, "Number of profiles to skip")
	fs.BoolVar(&opts.RawJSON, "json", false, "Print profiles as JSON")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if status != "" {
		st, err := domainauth.ParseApprovalStatus(status)
		if err != nil {
			return opts, err
		}
		opts.Status = &st
	}
	if opts.Limit <= 0 || opts.Limit > ports.MaxProfileListLimit {
		return opts, fmt.Errorf("limit must be between 1 and %d, got %d", ports.MaxProfileListLimit, opts.Limit)
	}
	if opts.Offset < 0 {
		return opts, fmt.Errorf("offset must not be negative, got %d", opts.Offset)
	}
	return opts, nil
}

// parseChangeFlags reads `<user-id> [flags]`. withReason and withRole select
// which optional flags the command accepts.
func parseChangeFlags(name string, args []string, withReason, withRole bool) (changeOptions, error) {
	var opts changeOptions
	if len(args) == 0 || args[0] == "" || args[0][0] == '-' {
		return opts, errUserIDRequired
	}
	opts.UserID = args[0]

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringVar(&opts.Actor, "actor", defaultActor, "Name recorded as the reviewer")
	if withReason {
		fs.StringVar(&opts.Reason, "reason", "", "Optional rejection reason")
	}
	if withRole {
		fs.StringVar(&opts.Role, "role", "", "New role for the user")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return opts, err
	}
	if withRole && opts.Role == "" {
		return opts, errors.New("--role is required")
	}
	return opts, nil
}

func runListProfiles(cmdCtx *commandContext, args []string) error {
	opts, err := parseListProfilesFlags(args)
	if err != nil {
		return err
	}
	svc, closeFn, err := openProfileService(cmdCtx)
	if err != nil {
		return err
	}
	defer closeFn()
	return listProfiles(cmdCtx.Ctx, svc, opts, cmdCtx.Out)
}

func runApprove(cmdCtx *commandContext, args []string) error {
	opts, err := parseChangeFlags("approve", args, false, false)
	if err != nil {
		return err
	}
	return withProfileService(cmdCtx, func(svc profileAdmin) error {
		p, err := svc.Approve(cmdCtx.Ctx, opts.UserID, opts.Actor)
		return reportChange(cmdCtx.Out, "approved", p, err)
	})
}

func runReject(cmdCtx *commandContext, args []string) error {
	opts, err := parseChangeFlags("reject", args, true, false)
	if err != nil {
		return err
	}
	return withProfileService(cmdCtx, func(svc profileAdmin) error {
		p, err := svc.Reject(cmdCtx.Ctx, opts.UserID, opts.Actor, opts.Reason)
		return reportChange(cmdCtx.Out, "rejected", p, err)
	})
}

func runSetRole(cmdCtx *commandContext, args []string) error {
	opts, err := parseChangeFlags("set-role", args, false, true)
	if err != nil {
		return err
	}
	return withProfileService(cmdCtx, func(svc profileAdmin) error {
		p, err := svc.ChangeRole(cmdCtx.Ctx, opts.UserID, opts.Actor, opts.Role)
		return reportChange(cmdCtx.Out, "role updated", p, err)
	})
}

func withProfileService(cmdCtx *commandContext, fn func(profileAdmin) error) error {
	svc, closeFn, err := openProfileService(cmdCtx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(svc)
}

func listProfiles(ctx context.Context, svc profileAdmin, opts listProfilesOptions, w io.Writer) error {
	profiles, err := svc.ListByStatus(ctx, opts.Status, opts.Limit, opts.Offset)
	if err != nil {
		return err
	}
	if opts.RawJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(profiles)
	}
	return printProfiles(w, profiles)
}

func printProfiles(w io.Writer, profiles []*domainauth.Profile) error {
	if len(profiles) == 0 {
		_, err := fmt.Fprintln(w, "No profiles found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USER ID\tEMAIL\tROLE\tSTATUS\tDEPARTMENT\tCREATED")
	for _, p := range profiles {
		dept := "-"
		if p.Department != nil && *p.Department != "" {
			dept = *p.Department
		}
		created := "-"
		if !p.CreatedAt.IsZero() {
			created = p.CreatedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.UserID, p.Email, p.Role, p.EffectiveApprovalStatus(), dept, created)
	}
	return tw.Flush()
}

func reportChange(w io.Writer, verb string, p *domainauth.Profile, err error) error {
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s: %s (role=%s status=%s)\n", verb, p.UserID, p.Role, p.EffectiveApprovalStatus())
	return err
}
