// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// MaxTableInputs is the maximum number of inputs accepted by TruthTable.
//
const MaxTableInputs = 16

// A Row is one line of a truth table.
//
type Row struct {
	In  []bool
	Out []bool
}

// A TruthTable lists the outputs of a netlist for every input combination.
//
type TruthTable struct {
	Inputs  []string
	Outputs []string
	Rows    []Row
}

// TruthTable drives the Toggle and Button components of n through every
// combination of values and records the value of every Light.
//
// Rows are ordered by combination, the first input being the most
// significant bit. Input and output names are the component labels, or A, B,
// ... for unlabeled inputs and F1, F2, ... for unlabeled outputs. Input levels
// are restored, and the netlist simulated again, before returning.
//
func (n *Netlist) TruthTable() (tt *TruthTable, err error) {
	ins, outs := n.Inputs(), n.Outputs()
	if len(ins) > MaxTableInputs {
		return nil, errors.Wrapf(ErrTooManyInputs, "%d inputs, max %d", len(ins), MaxTableInputs)
	}
	for _, c := range ins {
		if c.Width() != 1 {
			return nil, errors.Wrapf(ErrUnsupported, "multi-bit input %s", c.ID)
		}
	}

	tt = &TruthTable{
		Inputs:  make([]string, len(ins)),
		Outputs: make([]string, len(outs)),
	}
	for i, c := range ins {
		tt.Inputs[i] = c.Label
		if c.Label == "" {
			tt.Inputs[i] = inputName(i)
		}
	}
	for i, c := range outs {
		tt.Outputs[i] = c.Label
		if c.Label == "" {
			tt.Outputs[i] = "F" + strconv.Itoa(i+1)
		}
	}

	saved := make([]bool, len(ins))
	for i, c := range ins {
		saved[i] = c.state[0]
	}
	defer func() {
		for i, c := range ins {
			c.state[0] = saved[i]
		}
		if serr := n.Simulate(); serr != nil && err == nil {
			tt, err = nil, serr
		}
	}()

	count := 1 << uint(len(ins))
	tt.Rows = make([]Row, 0, count)
	for r := 0; r < count; r++ {
		row := Row{In: make([]bool, len(ins)), Out: make([]bool, len(outs))}
		for j, c := range ins {
			v := r&(1<<uint(len(ins)-1-j)) != 0
			c.state[0] = v
			row.In[j] = v
		}
		if err = n.Simulate(); err != nil {
			return nil, err
		}
		for j, c := range outs {
			row.Out[j] = c.In[0].Bool()
		}
		tt.Rows = append(tt.Rows, row)
	}
	return tt, nil
}

// inputName returns A, B, ..., Z, AA, AB, ...
func inputName(i int) string {
	s := ""
	for i >= 0 {
		s = string(rune('A'+i%26)) + s
		i = i/26 - 1
	}
	return s
}

// Column returns the values of output column i, one per row.
//
func (tt *TruthTable) Column(i int) []bool {
	c := make([]bool, len(tt.Rows))
	for r, row := range tt.Rows {
		c[r] = row.Out[i]
	}
	return c
}

// Output returns the index of the output with the given name, or -1.
//
func (tt *TruthTable) Output(name string) int {
	for i, o := range tt.Outputs {
		if o == name {
			return i
		}
	}
	return -1
}

// Write prints tt as a text table.
//
func (tt *TruthTable) Write(w io.Writer) error {
	b := func(v bool) string {
		if v {
			return "1"
		}
		return "0"
	}
	for _, n := range tt.Inputs {
		if _, err := fmt.Fprintf(w, "%s\t", n); err != nil {
			return err
		}
	}
	fmt.Fprint(w, "|")
	for _, n := range tt.Outputs {
		fmt.Fprintf(w, "\t%s", n)
	}
	fmt.Fprintln(w)
	for _, r := range tt.Rows {
		for _, v := range r.In {
			fmt.Fprintf(w, "%s\t", b(v))
		}
		fmt.Fprint(w, "|")
		for _, v := range r.Out {
			fmt.Fprintf(w, "\t%s", b(v))
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
