// Command feedbackctl queries a running feedback analytics server and prints the reports
// as JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	handler "github.com/godilite/feedback-analytics/internal/grpc"
)

const envPrefix = "FEEDBACKCTL"

type dialFunc func(addr string) (*grpc.ClientConn, error)

type call func(c *handler.FeedbackAnalyticsClient, ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

type rootConfig struct {
	addr    string
	tenant  string
	timeout time.Duration
	out     io.Writer
	dial    dialFunc
}

func insecureDial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func newRootCommand(out io.Writer, dial dialFunc) *ffcli.Command {
	cfg := &rootConfig{out: out, dial: dial}

	fs := flag.NewFlagSet("feedbackctl", flag.ContinueOnError)
	fs.StringVar(&cfg.addr, "addr", "localhost:50051", "feedback analytics server address")
	fs.StringVar(&cfg.tenant, "tenant", "", "tenant id (required)")
	fs.DurationVar(&cfg.timeout, "timeout", 15*time.Second, "per request timeout")

	return &ffcli.Command{
		Name:       "feedbackctl",
		ShortUsage: "feedbackctl [flags] <subcommand> -subject <id> [-survey <id>]",
		ShortHelp:  "query 360 feedback reports",
		FlagSet:    fs,
		Options:    []ff.Option{ff.WithEnvVarPrefix(envPrefix)},
		Subcommands: []*ffcli.Command{
			cfg.subcommand("subject", "self and evaluator summaries of a subject", (*handler.FeedbackAnalyticsClient).GetSubjectReport),
			cfg.subcommand("self", "self assessment against the evaluator average", (*handler.FeedbackAnalyticsClient).GetSelfVsEvaluator),
			cfg.subcommand("org", "evaluator average against the rest of the organization", (*handler.FeedbackAnalyticsClient).GetOrganizationComparison),
			cfg.subcommand("report", "every view of a subject in one report", (*handler.FeedbackAnalyticsClient).GetComprehensiveReport),
		},
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
	}
}

func (r *rootConfig) subcommand(name, short string, fn call) *ffcli.Command {
	fs := flag.NewFlagSet("feedbackctl "+name, flag.ContinueOnError)
	subject := fs.String("subject", "", "subject id (required)")
	survey := fs.String("survey", "", "restrict to one survey id")

	return &ffcli.Command{
		Name:       name,
		ShortUsage: "feedbackctl [flags] " + name + " -subject <id> [-survey <id>]",
		ShortHelp:  short,
		FlagSet:    fs,
		Options:    []ff.Option{ff.WithEnvVarPrefix(envPrefix)},
		Exec: func(ctx context.Context, _ []string) error {
			return r.invoke(ctx, fn, *subject, *survey)
		},
	}
}

func (r *rootConfig) invoke(ctx context.Context, fn call, subject, survey string) error {
	if r.tenant == "" {
		return errors.New("-tenant is required")
	}
	if subject == "" {
		return errors.New("-subject is required")
	}

	conn, err := r.dial(r.addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", r.addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := fn(handler.NewFeedbackAnalyticsClient(conn), ctx, handler.NewSubjectRequest(r.tenant, subject, survey))
	if err != nil {
		if st, ok := status.FromError(err); ok {
			return fmt.Errorf("%s: %s", st.Code(), st.Message())
		}
		return err
	}

	raw, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = fmt.Fprintln(r.out, string(raw))
	return err
}

func main() {
	root := newRootCommand(os.Stdout, insecureDial)
	if err := root.ParseAndRun(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "feedbackctl: %v\n", err)
		os.Exit(1)
	}
}
