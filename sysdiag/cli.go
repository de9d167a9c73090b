package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"sysdiag/internals/cliutil"
	"sysdiag/internals/schemas"
	"sysdiag/internals/timeouts"
	"sysdiag/sdk"
	"sysdiag/sysdiagd/server"
	"sysdiag/tui"

	z "github.com/Oudwins/zog"
)

var ErrUsage = errors.New("usage:\n  sysdiag serve\n  sysdiag submit [--problem <text>] [--sysinfo-file <path>] [--wait] [--wait-timeout <duration>]\n  sysdiag report <taskId>\n  sysdiag chat <taskId> --message <text>\n  sysdiag watch <taskId>\n  sysdiag tui\n  sysdiag stop\n  sysdiag version")

type SubmitArgs struct {
	Problem     string `zog:"problem"`
	SysinfoFile string `zog:"sysinfoFile"`
	Wait        bool   `zog:"wait"`
	Timeout     string `zog:"timeout"`
}

type ChatArgs struct {
	TaskID  string `zog:"taskId"`
	Message string `zog:"message"`
}

var submitArgsSchema = z.Struct(z.Shape{
	"Problem":     z.String().Optional().Trim(),
	"SysinfoFile": z.String().Optional().Trim(),
	"Wait":        z.Bool().Optional(),
	"Timeout":     z.String().Optional().Trim(),
})

var chatArgsSchema = z.Struct(z.Shape{
	"TaskID":  z.String().Required().Trim(),
	"Message": z.String().Required(z.Message("User message cannot be empty.")).Trim(),
})

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	command := args[0]
	client := sdk.NewClient()

	switch command {
	case "serve":
		return server.New().Start()
	case "submit":
		parsed, err := parseSubmitArgs(args[1:])
		if err != nil {
			return err
		}
		if err := validateSubmitArgs(&parsed); err != nil {
			return err
		}
		request, err := buildSubmitRequest(parsed)
		if err != nil {
			return err
		}
		if err := cliutil.EnsureDaemonRunning(client); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondDefault)
		defer cancel()
		response, err := client.SubmitDiagnostic(ctx, request)
		if err != nil {
			return err
		}
		cliutil.PrintSubmitAccepted(response)
		if parsed.Wait {
			timeout, err := parseWaitTimeout(parsed.Timeout)
			if err != nil {
				return err
			}
			final, err := waitForReport(client, response.TaskID, timeout)
			if err != nil {
				return err
			}
			cliutil.PrintReport(final)
		}
		return nil
	case "report":
		if len(args) != 2 {
			return ErrUsage
		}
		if err := cliutil.EnsureDaemonRunning(client); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondShort)
		defer cancel()
		response, err := client.GetDiagnosticReport(ctx, args[1])
		if err != nil {
			return err
		}
		cliutil.PrintReport(response)
		return nil
	case "chat":
		parsed, err := parseChatArgs(args[1:])
		if err != nil {
			return err
		}
		if issues := chatArgsSchema.Validate(&parsed); len(issues) > 0 {
			return fmt.Errorf("invalid arguments:\n%s", z.Issues.Prettify(issues))
		}
		if err := cliutil.EnsureDaemonRunning(client); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		response, err := client.Chat(ctx, parsed.TaskID, schemas.ChatRequest{UserMessage: parsed.Message})
		if err != nil {
			return err
		}
		fmt.Println(response.AIResponse)
		return nil
	case "watch":
		if len(args) != 2 {
			return ErrUsage
		}
		if err := cliutil.EnsureDaemonRunning(client); err != nil {
			return err
		}
		return tui.Watch(client, args[1])
	case "tui":
		if err := cliutil.EnsureDaemonRunning(client); err != nil {
			return err
		}
		return tui.Run(client)
	case "stop":
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondShort)
		defer cancel()
		if err := client.Shutdown(ctx); err != nil {
			return err
		}
		fmt.Println("sysdiagd stopped")
		return nil
	case "version":
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Probe)
		defer cancel()
		remote, err := client.Version(ctx)
		if err != nil {
			fmt.Println("server: not running")
			return nil
		}
		fmt.Printf("server: %s\n", remote)
		return nil
	default:
		return ErrUsage
	}
}

func parseSubmitArgs(args []string) (SubmitArgs, error) {
	parsed := SubmitArgs{}
	for i := 0; i < len(args); {
		switch args[i] {
		case "--problem":
			if i+1 >= len(args) {
				return parsed, ErrUsage
			}
			parsed.Problem = args[i+1]
			i += 2
		case "--sysinfo-file":
			if i+1 >= len(args) {
				return parsed, ErrUsage
			}
			parsed.SysinfoFile = args[i+1]
			i += 2
		case "--wait":
			parsed.Wait = true
			i += 1
		case "--wait-timeout":
			if i+1 >= len(args) {
				return parsed, ErrUsage
			}
			parsed.Timeout = args[i+1]
			i += 2
		default:
			return parsed, ErrUsage
		}
	}
	return parsed, nil
}

func parseChatArgs(args []string) (ChatArgs, error) {
	if len(args) < 1 {
		return ChatArgs{}, ErrUsage
	}
	parsed := ChatArgs{TaskID: args[0]}
	for i := 1; i < len(args); {
		switch args[i] {
		case "--message":
			if i+1 >= len(args) {
				return parsed, ErrUsage
			}
			parsed.Message = args[i+1]
			i += 2
		default:
			return parsed, ErrUsage
		}
	}
	return parsed, nil
}

func validateSubmitArgs(payload *SubmitArgs) error {
	if issues := submitArgsSchema.Validate(payload); len(issues) > 0 {
		return fmt.Errorf("invalid arguments:\n%s", z.Issues.Prettify(issues))
	}
	if payload.Problem == "" && payload.SysinfoFile == "" {
		return errors.New("provide --problem and/or --sysinfo-file")
	}
	return nil
}

func buildSubmitRequest(parsed SubmitArgs) (schemas.SubmitRequest, error) {
	request := schemas.SubmitRequest{ProblemDescription: parsed.Problem}
	if parsed.SysinfoFile != "" {
		data, err := os.ReadFile(parsed.SysinfoFile)
		if err != nil {
			return request, fmt.Errorf("failed to read sysinfo file: %w", err)
		}
		request.SystemInfoText = string(data)
	}
	return request, nil
}

func parseWaitTimeout(raw string) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return 10 * time.Minute, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid wait timeout: %w", err)
	}
	return value, nil
}

func waitForReport(client *sdk.Client, taskID string, timeout time.Duration) (*schemas.ReportResponse, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondShort)
		response, err := client.GetDiagnosticReport(ctx, taskID)
		cancel()
		if err != nil {
			return nil, err
		}
		if response.Status.Terminal() {
			return response, nil
		}
		time.Sleep(timeouts.PollInterval)
	}

	return nil, fmt.Errorf("timed out waiting for task %s", taskID)
}
