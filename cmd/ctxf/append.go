package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/davidahmann/ctxf/core/detect"
	"github.com/davidahmann/ctxf/core/projectconfig"
	schemacontext "github.com/davidahmann/ctxf/core/schema/v1/context"
	"github.com/davidahmann/ctxf/core/writer"
)

type appendOutput struct {
	OK         bool              `json:"ok"`
	File       string            `json:"file,omitempty"`
	Redactions []redactionOutput `json:"redactions,omitempty"`
	Error      string            `json:"error,omitempty"`
}

type redactionOutput struct {
	Field  string `json:"field"`
	Type   string `json:"type"`
	Masked string `json:"masked"`
}

type appendFlags struct {
	configPath string
	dir        string
	file       string
	throw      bool
	noRedact   bool
	jsonOutput bool
	help       bool
}

func registerAppendFlags(flagSet *flag.FlagSet, flags *appendFlags) {
	flagSet.StringVar(&flags.configPath, "config", projectconfig.DefaultPath, "project config path")
	flagSet.StringVar(&flags.dir, "dir", "", "directory holding context files (overrides config)")
	flagSet.StringVar(&flags.file, "file", "context.ctxf", "target context file")
	flagSet.BoolVar(&flags.throw, "throw", false, "refuse writes containing secrets instead of masking")
	flagSet.BoolVar(&flags.noRedact, "no-redact", false, "disable secret redaction for this write")
	flagSet.BoolVar(&flags.jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&flags.help, "help", false, "show help")
}

// buildWriter assembles a secure writer from project config plus flag
// overrides. The redaction log is returned so the command can report events.
func buildWriter(flags appendFlags) (*writer.Writer, *writer.RedactionLog, error) {
	configuration, err := projectconfig.Load(flags.configPath, true)
	if err != nil {
		return nil, nil, err
	}
	dir := flags.dir
	if dir == "" {
		dir = configuration.Writer.Directory
	}
	if dir == "" {
		dir = "."
	}
	options := writer.Options{
		EnableSecretRedaction: configuration.Writer.SecretRedactionEnabled() && !flags.noRedact,
		ThrowOnSecrets:        flags.throw || configuration.Writer.ThrowOnSecrets,
		LogRedactions:         configuration.Writer.LogRedactionsEnabled(),
	}
	if len(configuration.Detect.Disabled) > 0 {
		options.Scanner = detect.NewScanner(detect.PatternsExcept(configuration.Detect.Disabled)...)
	}
	log := &writer.RedactionLog{}
	return writer.New(dir, options, log), log, nil
}

func runAppend(arguments []string) int {
	if len(arguments) == 0 {
		fmt.Println("usage: ctxf append <conversation|memory|state|raw> [flags]")
		return exitInvalidInput
	}
	switch arguments[0] {
	case "conversation":
		return runAppendConversation(arguments[1:])
	case "memory":
		return runAppendMemory(arguments[1:])
	case "state":
		return runAppendState(arguments[1:])
	case "raw":
		return runAppendRaw(arguments[1:])
	default:
		fmt.Println("usage: ctxf append <conversation|memory|state|raw> [flags]")
		return exitInvalidInput
	}
}

func runAppendConversation(arguments []string) int {
	flagSet := flag.NewFlagSet("append conversation", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	var flags appendFlags
	registerAppendFlags(flagSet, &flags)

	var role string
	var content string
	flagSet.StringVar(&role, "role", "user", "speaker role: user, assistant or system")
	flagSet.StringVar(&content, "content", "", "message content")

	if err := flagSet.Parse(arguments); err != nil {
		return writeAppendOutput(flags.jsonOutput, appendOutput{Error: err.Error()}, exitInvalidInput)
	}
	if flags.help {
		fmt.Println("usage: ctxf append conversation --role user --content text [flags]")
		return exitOK
	}
	return appendRecord(flags, func(w *writer.Writer) error {
		return w.WriteConversation(flags.file, schemacontext.ConversationRecord{
			Role:    schemacontext.Role(role),
			Content: content,
		})
	})
}

func runAppendMemory(arguments []string) int {
	flagSet := flag.NewFlagSet("append memory", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	var flags appendFlags
	registerAppendFlags(flagSet, &flags)

	var kind string
	var content string
	var importance string
	flagSet.StringVar(&kind, "kind", "semantic", "memory kind: episodic, semantic or procedural")
	flagSet.StringVar(&content, "content", "", "memory content")
	flagSet.StringVar(&importance, "importance", "", "optional importance score")

	if err := flagSet.Parse(arguments); err != nil {
		return writeAppendOutput(flags.jsonOutput, appendOutput{Error: err.Error()}, exitInvalidInput)
	}
	if flags.help {
		fmt.Println("usage: ctxf append memory --kind semantic --content text [flags]")
		return exitOK
	}
	return appendRecord(flags, func(w *writer.Writer) error {
		return w.WriteMemory(flags.file, schemacontext.MemoryRecord{
			Kind:       schemacontext.MemoryKind(kind),
			Content:    content,
			Importance: importance,
		})
	})
}

func runAppendState(arguments []string) int {
	flagSet := flag.NewFlagSet("append state", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	var flags appendFlags
	registerAppendFlags(flagSet, &flags)

	var scope string
	var key string
	var value string
	var typeTag string
	var ttl string
	flagSet.StringVar(&scope, "scope", "session", "state scope: session, user, app or temp")
	flagSet.StringVar(&key, "key", "", "state key")
	flagSet.StringVar(&value, "value", "", "state value")
	flagSet.StringVar(&typeTag, "type", "", "optional value type tag")
	flagSet.StringVar(&ttl, "ttl", "", "optional time-to-live, temp scope only")

	if err := flagSet.Parse(arguments); err != nil {
		return writeAppendOutput(flags.jsonOutput, appendOutput{Error: err.Error()}, exitInvalidInput)
	}
	if flags.help {
		fmt.Println("usage: ctxf append state --scope session --key name --value text [flags]")
		return exitOK
	}
	return appendRecord(flags, func(w *writer.Writer) error {
		return w.WriteState(flags.file, schemacontext.StateRecord{
			Scope:   schemacontext.StateScope(scope),
			Key:     key,
			Value:   value,
			TypeTag: typeTag,
			TTL:     ttl,
		})
	})
}

func runAppendRaw(arguments []string) int {
	flagSet := flag.NewFlagSet("append raw", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	var flags appendFlags
	registerAppendFlags(flagSet, &flags)

	var line string
	flagSet.StringVar(&line, "line", "", "raw line to append")

	if err := flagSet.Parse(arguments); err != nil {
		return writeAppendOutput(flags.jsonOutput, appendOutput{Error: err.Error()}, exitInvalidInput)
	}
	if flags.help {
		fmt.Println("usage: ctxf append raw --line text [flags]")
		return exitOK
	}
	return appendRecord(flags, func(w *writer.Writer) error {
		return w.AppendLine(flags.file, line)
	})
}

func appendRecord(flags appendFlags, write func(*writer.Writer) error) int {
	contextWriter, log, err := buildWriter(flags)
	if err != nil {
		return writeAppendOutput(flags.jsonOutput, appendOutput{File: flags.file, Error: errorText(err)}, exitCodeForError(err, exitInvalidInput))
	}
	if err := write(contextWriter); err != nil {
		return writeAppendOutput(flags.jsonOutput, appendOutput{File: flags.file, Error: errorText(err)}, exitCodeForError(err, exitInternalFailure))
	}
	output := appendOutput{OK: true, File: flags.file}
	for _, event := range log.Entries() {
		output.Redactions = append(output.Redactions, redactionOutput{
			Field:  event.Field,
			Type:   string(event.Type),
			Masked: event.Masked,
		})
	}
	return writeAppendOutput(flags.jsonOutput, output, exitOK)
}

func writeAppendOutput(jsonOutput bool, output appendOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if output.Error != "" {
		fmt.Println("append failed:", output.Error)
		return exitCode
	}
	fmt.Println("appended to", output.File)
	for _, redaction := range output.Redactions {
		fmt.Printf("  redacted %s in %s: %s\n", redaction.Type, redaction.Field, redaction.Masked)
	}
	return exitCode
}
