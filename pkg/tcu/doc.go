// Package tcu drives the JZ47xx timer/counter unit as a pool of one-shot
// event sources.
//
// A Unit owns up to eight 16-bit countdown channels behind one register
// window. Channels are claimed individually: the claim takes the channel's
// bit in a shared bitmap and brings up its input clock, and every failure
// path returns the channel exactly as it was found. A claimed channel can be
// reset and then bound as a one-shot clock event device: Arm writes the
// deadline, clears the counter, and starts it with the shared enable bit
// last; the expiry interrupt stops the counter again before the event
// handler runs, so handlers re-arm from interrupt context.
//
// Bringup assembles all of this from a board description - which channels to
// use, which interrupt specifier each one has - and registers the resulting
// devices with a clockevent.Registry. The hardware itself is reached only
// through the collaborator interfaces in Config (mmio.Window, syscon
// regmaps, clk.Provider, irq.Controller), so the same driver runs against
// the simulator in pkg/sim or a real platform binding.
package tcu
