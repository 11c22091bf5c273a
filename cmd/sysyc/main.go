package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iley/sysyc/internal/codegen"
	"github.com/iley/sysyc/internal/compiler"
	"github.com/iley/sysyc/internal/logger"
	"github.com/iley/sysyc/internal/rvsim"
)

var (
	outputFile string
	targetName string
	logLevel   string
	logFormat  string
	stdinFile  string
	maxSteps   int64

	// Set by the run command, returned from the process once cobra is done.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "sysyc",
	Short: "SysY compiler",
	Long:  "A compiler for the SysY language targeting RISC-V 32.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logger.LevelFromName(logLevel)
		if err != nil {
			return err
		}
		cfg := logger.DefaultConfig()
		cfg.Level = level
		cfg.Format = logFormat
		return logger.Init(cfg)
	},
}

var astCmd = &cobra.Command{
	Use:   "ast <file.sy>",
	Short: "Print the syntax tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(cmd, args[0], func(out io.Writer, src io.Reader) error {
			return compiler.EmitAST(out, src, args[0])
		})
	},
}

var irCmd = &cobra.Command{
	Use:   "ir <file.sy>",
	Short: "Print the intermediate representation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(cmd, args[0], func(out io.Writer, src io.Reader) error {
			return compiler.EmitIR(out, src, args[0])
		})
	},
}

var asmCmd = &cobra.Command{
	Use:   "asm <file.sy>",
	Short: "Compile to assembly",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := codegen.TargetFromName(targetName)
		if err != nil {
			return err
		}
		return emit(cmd, args[0], func(out io.Writer, src io.Reader) error {
			return compiler.EmitAsm(out, src, args[0], target)
		})
	},
}

var llvmCmd = &cobra.Command{
	Use:   "llvm <file.sy>",
	Short: "Export the program as LLVM IR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(cmd, args[0], func(out io.Writer, src io.Reader) error {
			return compiler.EmitLLVM(out, src, args[0])
		})
	},
}

var runCmd = &cobra.Command{
	Use:   "run <file.sy>",
	Short: "Compile and execute the program in the RV32 simulator",
	Long:  "Compile the program and run it in the built-in RISC-V simulator. The process exits with the low 8 bits of main's return value.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := runProgram(args[0])
		if err != nil {
			cmd.SilenceUsage = true
			return err
		}
		logger.Info("program finished", "file", args[0], "exit_code", code)
		exitCode = int(code & 0xff)
		return nil
	},
}

// runProgram compiles and runs file, reading the program's input from --stdin or os.Stdin.
func runProgram(file string) (int32, error) {
	src, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	cfg := rvsim.DefaultConfig()
	cfg.Stdin = os.Stdin
	cfg.Stdout = os.Stdout
	cfg.MaxSteps = maxSteps
	if stdinFile != "" {
		in, err := os.Open(stdinFile)
		if err != nil {
			return 0, err
		}
		defer in.Close()
		cfg.Stdin = in
	}
	return compiler.Run(src, file, cfg)
}

// emit compiles file and writes the result to the -o file or stdout. The output file
// is only created once compilation has succeeded.
func emit(cmd *cobra.Command, file string, compile func(io.Writer, io.Reader) error) error {
	src, err := os.Open(file)
	if err != nil {
		return err
	}
	defer src.Close()

	var buf bytes.Buffer
	if err := compile(&buf, src); err != nil {
		cmd.SilenceUsage = true
		return err
	}

	if outputFile == "" || outputFile == "-" {
		_, err = buf.WriteTo(os.Stdout)
		return err
	}
	return os.WriteFile(outputFile, buf.Bytes(), 0o644)
}

func envOr(name, fallback string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}
	return fallback
}

func defaultMaxSteps() int64 {
	if val := os.Getenv("SYSYC_MAX_STEPS"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
		fmt.Fprintf(os.Stderr, "warning: ignoring invalid SYSYC_MAX_STEPS %q\n", val)
	}
	return rvsim.DEFAULT_MAX_STEPS
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("SYSYC_LOG_LEVEL", "warn"), "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	for _, cmd := range []*cobra.Command{astCmd, irCmd, asmCmd, llvmCmd} {
		cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file name (default stdout)")
	}
	asmCmd.Flags().StringVar(&targetName, "target", codegen.TargetRISCV32.String(), "target architecture")

	runCmd.Flags().StringVar(&stdinFile, "stdin", "", "file to use as the program's standard input")
	runCmd.Flags().Int64Var(&maxSteps, "max-steps", defaultMaxSteps(), "instruction limit, 0 for unlimited")

	rootCmd.AddCommand(astCmd, irCmd, asmCmd, llvmCmd, runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}
