package generator

import "github.com/sarchlab/middlesquare/hooking"

// Hook positions published by a Generator. The Item of every HookCtx is the
// Step that triggered the hook.
var (
	// HookPosStep triggers after every iteration.
	HookPosStep = &hooking.HookPos{Name: "Step"}

	// HookPosShortExtraction triggers when the extracted window holds fewer
	// than Digits() characters.
	HookPosShortExtraction = &hooking.HookPos{Name: "ShortExtraction"}

	// HookPosZeroLock triggers once, on the first iteration that yields zero.
	// Every later iteration yields zero as well.
	HookPosZeroLock = &hooking.HookPos{Name: "ZeroLock"}
)
