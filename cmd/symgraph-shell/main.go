// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

/*
symgraph-shell executes a line-oriented command script against an
in-memory symbolic graph store and prints each command's result.  Most
commands print one line; query prints the match count followed by one
line per matching triple, and dump prints a header followed by one row
per triple.
It exists for exploration and for driving the store from test
harnesses written in other languages.

Commands:
	manifest <ns> <id>
	create <ns>
	release <ns> <id>
	link <e_ns> <e_id> <a_ns> <a_id> <v_ns> <v_id>
	unlink <e_ns> <e_id> <a_ns> <a_id> <v_ns> <v_id>
	symbols <ns>
	query <mask> <e_ns> <e_id> <a_ns> <a_id> <v_ns> <v_id>
	length <ns> <id>
	crease <ns> <id> <offset> <delta>
	write <ns> <id> <offset> <length> <word>...
	read <ns> <id> <offset> <length>
	replace <dst_ns> <dst_id> <dst_offset> <src_ns> <src_id> <src_offset> <length>
	dump

<mask> is three letters from {M,V,I} in entity, attribute, value order,
e.g. VMV to fix the attribute and enumerate the rest.  Blank lines and
lines starting with '#' are skipped.  dump writes every triple in the
store as TSV.
*/

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/symgraph/bitops"
	"github.com/grailbio/symgraph/graph"
	"github.com/grailbio/symgraph/identity"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

var poolVariant = flag.String("pool", "range", "Identifier-pool implementation: 'range' or 'tree'")

func shellUsage() {
	fmt.Printf("Usage: %s [OPTIONS] [scriptpath]\n", os.Args[0])
	fmt.Printf("Reads commands from scriptpath (plain or .gz), or from stdin when omitted.\n")
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func parseIdentity(token string) (identity.Identity, error) {
	value, err := strconv.ParseUint(token, 0, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "bad identity %q", token)
	}
	return identity.Identity(value), nil
}

func parseSymbol(tokens []string) (graph.Symbol, error) {
	ns, err := parseIdentity(tokens[0])
	if err != nil {
		return graph.Symbol{}, err
	}
	local, err := parseIdentity(tokens[1])
	if err != nil {
		return graph.Symbol{}, err
	}
	return graph.Symbol{Namespace: ns, Local: local}, nil
}

func parseTriple(tokens []string) (graph.Triple, error) {
	var result graph.Triple
	for i := 0; i < 3; i++ {
		sym, err := parseSymbol(tokens[2*i:])
		if err != nil {
			return graph.Triple{}, err
		}
		result[i] = sym
	}
	return result, nil
}

func parseMask(token string) (graph.QueryMask, error) {
	if len(token) != 3 {
		return 0, errors.Errorf("bad mask %q: want three letters from {M,V,I}", token)
	}
	var constraints [3]graph.Constraint
	for i := 0; i < 3; i++ {
		switch token[i] {
		case 'M':
			constraints[i] = graph.Match
		case 'V':
			constraints[i] = graph.Varying
		case 'I':
			constraints[i] = graph.Ignore
		default:
			return 0, errors.Errorf("bad mask %q: unknown letter %q", token, token[i])
		}
	}
	return graph.Mask(constraints[0], constraints[1], constraints[2]), nil
}

func parseUintptr(token string) (uintptr, error) {
	value, err := strconv.ParseUint(token, 0, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "bad number %q", token)
	}
	return uintptr(value), nil
}

func wordsFor(nBits uintptr) uintptr {
	return (nBits + bitops.BitsPerWord - 1) / bitops.BitsPerWord
}

func checkArgs(tokens []string, n int) error {
	if len(tokens) != n {
		return errors.Errorf("%s takes %d arguments, got %d", tokens[0], n-1, len(tokens)-1)
	}
	return nil
}

func dumpTriples(store *graph.Store, out io.Writer) error {
	w := tsv.NewWriter(out)
	w.WriteString("#E_NS\tE_ID\tA_NS\tA_ID\tV_NS\tV_ID")
	if err := w.EndLine(); err != nil {
		return err
	}
	allVariable := graph.Mask(graph.Varying, graph.Varying, graph.Varying)
	for _, t := range store.QueryTriples(allVariable, graph.Triple{}) {
		for i := 0; i < 3; i++ {
			w.WriteString(strconv.FormatUint(uint64(t[i].Namespace), 10))
			w.WriteString(strconv.FormatUint(uint64(t[i].Local), 10))
		}
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

func runCommand(store *graph.Store, tokens []string, out io.Writer) error {
	switch tokens[0] {
	case "manifest":
		if err := checkArgs(tokens, 3); err != nil {
			return err
		}
		sym, err := parseSymbol(tokens[1:])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, store.ManifestSymbol(sym))
	case "create":
		if err := checkArgs(tokens, 2); err != nil {
			return err
		}
		ns, err := parseIdentity(tokens[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, uint64(store.CreateSymbol(ns).Local))
	case "release":
		if err := checkArgs(tokens, 3); err != nil {
			return err
		}
		sym, err := parseSymbol(tokens[1:])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, store.ReleaseSymbol(sym))
	case "link", "unlink":
		if err := checkArgs(tokens, 7); err != nil {
			return err
		}
		t, err := parseTriple(tokens[1:])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, store.SetTriple(t, tokens[0] == "link"))
	case "symbols":
		if err := checkArgs(tokens, 2); err != nil {
			return err
		}
		ns, err := parseIdentity(tokens[1])
		if err != nil {
			return err
		}
		locals := store.QuerySymbols(ns)
		sort.Slice(locals, func(i, j int) bool { return locals[i] < locals[j] })
		parts := make([]string, len(locals))
		for i, local := range locals {
			parts[i] = strconv.FormatUint(uint64(local), 10)
		}
		fmt.Fprintln(out, strings.Join(parts, " "))
	case "query":
		if err := checkArgs(tokens, 8); err != nil {
			return err
		}
		mask, err := parseMask(tokens[1])
		if err != nil {
			return err
		}
		t, err := parseTriple(tokens[2:])
		if err != nil {
			return err
		}
		flat := store.QueryTriplesFlat(mask, t)
		fmt.Fprintln(out, len(flat)/6)
		for i := 0; i < len(flat); i += 6 {
			parts := make([]string, 6)
			for j := 0; j < 6; j++ {
				parts[j] = strconv.FormatUint(uint64(flat[i+j]), 10)
			}
			fmt.Fprintln(out, strings.Join(parts, " "))
		}
	case "length":
		if err := checkArgs(tokens, 3); err != nil {
			return err
		}
		sym, err := parseSymbol(tokens[1:])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, uint64(store.GetLength(sym)))
	case "crease":
		if err := checkArgs(tokens, 5); err != nil {
			return err
		}
		sym, err := parseSymbol(tokens[1:])
		if err != nil {
			return err
		}
		offset, err := parseUintptr(tokens[3])
		if err != nil {
			return err
		}
		delta, err := strconv.Atoi(tokens[4])
		if err != nil {
			return errors.Wrapf(err, "bad delta %q", tokens[4])
		}
		fmt.Fprintln(out, store.CreaseLength(sym, offset, delta))
	case "write":
		if len(tokens) < 5 {
			return errors.Errorf("write takes at least 4 arguments, got %d", len(tokens)-1)
		}
		sym, err := parseSymbol(tokens[1:])
		if err != nil {
			return err
		}
		offset, err := parseUintptr(tokens[3])
		if err != nil {
			return err
		}
		length, err := parseUintptr(tokens[4])
		if err != nil {
			return err
		}
		words := tokens[5:]
		if uintptr(len(words)) != wordsFor(length) {
			return errors.Errorf("write of %d bits takes %d words, got %d", length, wordsFor(length), len(words))
		}
		src := make([]uintptr, len(words))
		for i, token := range words {
			if src[i], err = parseUintptr(token); err != nil {
				return err
			}
		}
		fmt.Fprintln(out, store.WriteData(sym, offset, length, src))
	case "read":
		if err := checkArgs(tokens, 5); err != nil {
			return err
		}
		sym, err := parseSymbol(tokens[1:])
		if err != nil {
			return err
		}
		offset, err := parseUintptr(tokens[3])
		if err != nil {
			return err
		}
		length, err := parseUintptr(tokens[4])
		if err != nil {
			return err
		}
		dst := make([]uintptr, wordsFor(length))
		if !store.ReadData(sym, offset, length, dst) {
			fmt.Fprintln(out, false)
			break
		}
		parts := make([]string, len(dst))
		for i, word := range dst {
			parts[i] = "0x" + strconv.FormatUint(uint64(word), 16)
		}
		fmt.Fprintln(out, strings.Join(parts, " "))
	case "replace":
		if err := checkArgs(tokens, 8); err != nil {
			return err
		}
		dst, err := parseSymbol(tokens[1:])
		if err != nil {
			return err
		}
		dstOffset, err := parseUintptr(tokens[3])
		if err != nil {
			return err
		}
		src, err := parseSymbol(tokens[4:])
		if err != nil {
			return err
		}
		srcOffset, err := parseUintptr(tokens[6])
		if err != nil {
			return err
		}
		length, err := parseUintptr(tokens[7])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, store.ReplaceData(dst, dstOffset, src, srcOffset, length))
	case "dump":
		if err := checkArgs(tokens, 1); err != nil {
			return err
		}
		return dumpTriples(store, out)
	default:
		return errors.Errorf("unknown command %q", tokens[0])
	}
	return nil
}

func runScript(store *graph.Store, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	lineno := 0
	for scanner.Scan() {
		lineno++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}
		if err := runCommand(store, tokens, out); err != nil {
			return errors.Wrapf(err, "line %d", lineno)
		}
	}
	return errors.Wrap(scanner.Err(), "read script")
}

func main() {
	flag.Usage = shellUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() > 1 {
		log.Fatalf("At most one positional argument (scriptpath) expected; please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	opts := graph.Opts{}
	switch *poolVariant {
	case "range":
		opts.NewPool = func() identity.Pool { return identity.NewRangePool() }
	case "tree":
		opts.NewPool = func() identity.Pool { return identity.NewTreePool() }
	default:
		log.Fatalf("Unknown -pool variant %q; want 'range' or 'tree'", *poolVariant)
	}
	store := graph.NewStore(opts)

	in := io.Reader(os.Stdin)
	if flag.NArg() == 1 {
		path := flag.Arg(0)
		file, err := os.Open(path)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer file.Close() // nolint: errcheck
		in = file
		switch fileio.DetermineType(path) {
		case fileio.Gzip:
			gzReader, err := gzip.NewReader(in)
			if err != nil {
				log.Fatalf("%v", err)
			}
			defer gzReader.Close() // nolint: errcheck
			in = gzReader
		}
	}
	if err := runScript(store, in, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
