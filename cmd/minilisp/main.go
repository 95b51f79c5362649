package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/coyove/minilisp"
	"github.com/coyove/minilisp/repl"
)

var inputFile = flag.String("f", "", "input file")
var inputExpr = flag.String("e", "", "input expression")
var maxDepth = flag.Int("depth", minilisp.DefaultMaxDepth, "maximum evaluation depth, 0 means unlimited")
var trace = flag.Bool("trace", false, "trace evaluation to stderr")
var httpAddr = flag.String("http", "", "serve the debug REPL on this address")
var suppressStdout = flag.Bool("no-script-stdout", false, "suppress script stdout")

func main() {
	flag.Parse()

	opts := []minilisp.Option{minilisp.WithMaxDepth(*maxDepth)}
	if *trace {
		opts = append(opts, minilisp.WithTrace(log.New(os.Stderr, "minilisp ", log.Lmicroseconds)))
	}
	if *suppressStdout {
		opts = append(opts, minilisp.WithStdout(io.Discard))
	}

	if *httpAddr != "" {
		mux := http.NewServeMux()
		repl.Inject(mux, repl.NewLocked(opts...), *httpAddr)
		log.Println("debug REPL at http://" + *httpAddr + "/debug/pprof/repl")
		log.Fatal(http.ListenAndServe(*httpAddr, mux))
	}

	vm := minilisp.New(opts...)

	src := *inputExpr
	if *inputFile != "" {
		buf, err := os.ReadFile(*inputFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		src = string(buf)
	} else if src == "" {
		if err := repl.Run(vm); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	r, err := vm.EvalString(src)
	if err != nil {
		var re *minilisp.RuntimeError
		if errors.As(err, &re) {
			fmt.Fprintln(os.Stderr, re.Trace())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, r)
}
