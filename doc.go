// Package gopipe turns short Go fragments into small per-record
// text-processing programs.
//
// A fragment such as `strings.ToUpper(line)` is woven into a ready-to-run
// program that loops over standard input. The program can be printed, saved
// as an executable script, or built with the local Go toolchain and run at
// once, in the spirit of awk and perl -ne one-liners.
//
// # Commands
//
// The command selects the program skeleton:
//   - [CommandLine]: one iteration per input line (line, i)
//   - [CommandRec]: lines split into fields by delimiter or pattern (rec, header)
//   - [CommandCSV]: records read with encoding/csv, output written as CSV
//   - [CommandText]: the whole input as one string (text)
//   - [CommandFile]: each input line names a file whose contents are read (path, text)
//   - [CommandCustom]: a user-defined skeleton loaded with [LoadCustomCommand]
//
// # Quick Start
//
//	prog, err := gopipe.Generate(&gopipe.Options{
//	    Command: gopipe.CommandRec,
//	    Codes:   []string{"rec.Get(2), rec.Get(1)"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = prog.Run(ctx, nil) // reads os.Stdin, writes os.Stdout
//
// # Sections
//
// Generated source is assembled from sections in a fixed order: imports,
// helpers, pre code, loop head, loop filter, main body and post code. The
// last line of the main body is wrapped in the output call of the command
// (emit, view, write or counter.add) unless wrapping is disabled.
//
// # Error Handling
//
// Errors are returned as specific types for detailed handling:
//   - [OptionError]: options that cannot produce a program
//   - [TemplateError]: a skeleton that failed to render
//   - [SyntaxError]: fragments that make the program invalid Go
//   - [BuildError]: the Go toolchain rejected the program
//   - [ExitError]: the program exited with a non-zero status
package gopipe
