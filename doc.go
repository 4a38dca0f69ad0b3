/*
Package hwsim provides a gate-level netlist model and a naive simulator for
digital logic circuits.

A Netlist holds components (toggles, gates, multiplexers, flip-flops, lights,
...) and the directed wires connecting their ports. Simulate propagates
values along wires and evaluates every component, repeating for a fixed number
of passes so that values can ripple through feedback loops. It is not an
event-driven simulator: a circuit with no stable state just freezes in
whatever state the last pass produced.

Netlists are usually built from text by package synth, built by hand with Add
and Connect, or loaded from an exchange record with package record. A netlist
can be turned back into text with WriteVerilog, and its truth table fed to
package kmap for minimization.

Signal values are Bits, least significant bit first. When a wire connects
ports of different widths, the value is zero-extended or truncated (see
Bits.Resize).

*/
package hwsim
