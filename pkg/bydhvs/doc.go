// Package bydhvs implements the TCP client protocol of BYD HVS/HMS/LVS
// home batteries (the on-device service on port 8080, as spoken by the
// Be_Connect tool).
//
// One call to Poll runs a full poll cycle: connect, handshake, identity,
// pack status and one data request per tower, and returns either a fully
// populated Snapshot or a classified *CycleError. The package keeps no
// state between cycles besides the Endpoint configuration, so concurrent
// polling of distinct endpoints is safe.
package bydhvs
