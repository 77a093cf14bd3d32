package asmcost

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"
)

//go:embed assets/asm_cycle_armv4t.txt
var defaultCycleTableSource string

// CycleTable gives the worst-case cycle cost of executing one instance of
// an instruction mnemonic (lower-cased).
type CycleTable map[string]int

// DefaultCycleTable returns the armv4t instruction-cycle table shipped with
// this module.
func DefaultCycleTable() (CycleTable, error) {
	return ParseCycleTable(strings.NewReader(defaultCycleTableSource))
}

// ParseCycleTable reads a "<mnemonic> <cycles>" table, one pair per line.
// Blank lines and lines starting with '#' are skipped.
func ParseCycleTable(r io.Reader) (CycleTable, error) {
	table := CycleTable{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		cycles, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("asmcost: bad cycle count for %q: %w", fields[0], err)
		}
		table[strings.ToLower(fields[0])] = cycles
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// ErrUnknownMnemonic is returned by Cost when an instruction has no entry in
// the table.
type ErrUnknownMnemonic struct {
	Mnemonic string
}

func (e *ErrUnknownMnemonic) Error() string {
	return fmt.Sprintf("asmcost: unknown instruction mnemonic %q", e.Mnemonic)
}

// Cost looks up the cycle cost of one instruction's mnemonic, ignoring case.
// No suffix is stripped: the mnemonic is looked up as a whole word, so
// "ldrb" and "ldrsh" are distinct entries and a mnemonic carrying a
// condition code (e.g. "moveq") needs an entry of its own.
func (t CycleTable) Cost(mnemonic string) (int, error) {
	if c, ok := t[strings.ToLower(mnemonic)]; ok {
		return c, nil
	}
	return 0, &ErrUnknownMnemonic{Mnemonic: mnemonic}
}
