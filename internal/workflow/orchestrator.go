// Package workflow sequences the console's composite actions: turning
// a detection into a case, or into a firewall block, together with
// their user-visible side effects.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/SahilWadhwani/threathunt-console/internal/api"
	"github.com/SahilWadhwani/threathunt-console/internal/audit"
	"github.com/SahilWadhwani/threathunt-console/internal/cases"
	"github.com/SahilWadhwani/threathunt-console/internal/detections"
	"github.com/SahilWadhwani/threathunt-console/internal/notify"
	"github.com/SahilWadhwani/threathunt-console/internal/rbac"
	"github.com/SahilWadhwani/threathunt-console/internal/respond"
	"github.com/SahilWadhwani/threathunt-console/internal/session"
)

// ErrForbidden means the capability gate denied the action; the gate
// has already redirected, so callers render nothing further.
var ErrForbidden = errors.New("workflow: action forbidden for current role")

// ErrNoSourceIP means no address resolved from the detection: the
// block action is unavailable, which is a valid outcome rather than a
// failure.
var ErrNoSourceIP = errors.New("workflow: no source address resolvable from evidence")

// Navigator receives the post-success navigation target.
type Navigator interface {
	GoToCase(id int64)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(id int64)

func (f NavigatorFunc) GoToCase(id int64) { f(id) }

// Orchestrator wires the response actions through the capability gate,
// the mutation coordinator and the notification sinks.
type Orchestrator struct {
	cases    *cases.Service
	respond  *respond.Service
	gate     *rbac.Gate
	sess     *session.Store
	notifier notify.Notifier
	nav      Navigator
	trail    *audit.Store
	blockTTL int
}

// New creates an orchestrator. nav and trail may be nil; blockTTL <= 0
// falls back to the respond default.
func New(cs *cases.Service, rs *respond.Service, gate *rbac.Gate, sess *session.Store, n notify.Notifier, nav Navigator, trail *audit.Store, blockTTL int) *Orchestrator {
	if blockTTL <= 0 {
		blockTTL = respond.DefaultTTLMinutes
	}
	return &Orchestrator{
		cases:    cs,
		respond:  rs,
		gate:     gate,
		sess:     sess,
		notifier: n,
		nav:      nav,
		trail:    trail,
		blockTTL: blockTTL,
	}
}

// SetBlockTTL overrides the block duration for subsequent blocks.
// Non-positive values are ignored.
func (o *Orchestrator) SetBlockTTL(minutes int) {
	if minutes > 0 {
		o.blockTTL = minutes
	}
}

// CanBlock reports whether the block action is available for the
// detection: an address must resolve from it.
func (o *Orchestrator) CanBlock(d *detections.Detail) bool {
	return d.PrimaryIP() != ""
}

// OpenCaseFromDetection creates a case carrying the detection's title,
// summary and severity, linked to it as the sole detection. On success
// the analyst is navigated to the new case's detail view.
func (o *Orchestrator) OpenCaseFromDetection(ctx context.Context, d *detections.Detail) (*cases.Created, error) {
	if !o.gate.Require(rbac.AnalystOrAdmin...) {
		return nil, ErrForbidden
	}

	title := fmt.Sprintf("Detection #%d", d.ID)
	if d.Title != "" {
		title = fmt.Sprintf("[Det %d] %s", d.ID, d.Title)
	}
	severity := string(d.Severity)
	if severity == "" {
		severity = string(detections.SeverityMedium)
	}

	created, err := o.cases.Create(ctx, cases.CreateInput{
		Title:        title,
		Description:  d.Summary,
		Severity:     severity,
		DetectionIDs: []int64{d.ID},
	})
	if err != nil {
		o.notifier.Error("Failed to create case", api.Detail(err, "authorization or validation error"))
		o.log(ctx, audit.ActionCaseCreated, title, err)
		return nil, err
	}

	o.notifier.Success("Case created", created.Title)
	o.log(ctx, audit.ActionCaseCreated, fmt.Sprintf("case %d", created.ID), nil)
	if o.nav != nil {
		o.nav.GoToCase(created.ID)
	}
	return created, nil
}

// BlockIPFromDetection blocks the detection's primary source address
// for the configured duration. The action is unavailable when no
// address resolves.
func (o *Orchestrator) BlockIPFromDetection(ctx context.Context, d *detections.Detail) (*respond.BlockRule, error) {
	ip := d.PrimaryIP()
	if ip == "" {
		return nil, ErrNoSourceIP
	}
	if !o.gate.Require(rbac.AnalystOrAdmin...) {
		return nil, ErrForbidden
	}

	rule, err := o.respond.BlockIP(ctx, respond.BlockInput{
		IP:         ip,
		Reason:     fmt.Sprintf("from detection %d", d.ID),
		TTLMinutes: o.blockTTL,
	})
	if err != nil {
		o.notifier.Error("Failed to block IP", api.Detail(err, "authorization or validation error"))
		o.log(ctx, audit.ActionIPBlocked, ip, err)
		return nil, err
	}

	o.notifier.Success(fmt.Sprintf("IP blocked for %d minutes", o.blockTTL), ip)
	o.log(ctx, audit.ActionIPBlocked, ip, nil)
	return rule, nil
}

// UnblockRule deactivates a block rule and notifies the analyst.
func (o *Orchestrator) UnblockRule(ctx context.Context, id int64) error {
	if !o.gate.Require(rbac.AnalystOrAdmin...) {
		return ErrForbidden
	}

	if err := o.respond.Unblock(ctx, id); err != nil {
		o.notifier.Error("Failed to unblock", api.Detail(err, "authorization or validation error"))
		o.log(ctx, audit.ActionIPUnblocked, fmt.Sprintf("rule %d", id), err)
		return err
	}
	o.notifier.Success("IP unblocked", "")
	o.log(ctx, audit.ActionIPUnblocked, fmt.Sprintf("rule %d", id), nil)
	return nil
}

// log records the action in the local activity trail. Trail failures
// never fail the action itself.
func (o *Orchestrator) log(ctx context.Context, action audit.Action, subject string, actionErr error) {
	if o.trail == nil {
		return
	}
	actor := ""
	if id := o.sess.Identity(); id != nil {
		actor = id.Email
	}
	entry := audit.Entry{
		Actor:   actor,
		Action:  action,
		Subject: subject,
		Outcome: audit.OutcomeOK,
	}
	if actionErr != nil {
		entry.Outcome = audit.OutcomeFailed
		entry.Detail = actionErr.Error()
	}
	if err := o.trail.Log(ctx, entry); err != nil {
		log.Printf("workflow: recording activity: %v", err)
	}
}
