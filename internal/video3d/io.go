package video3d

import "nitro-core-dx/internal/savestate"

// cmdParamCount gives the number of 32-bit parameter words spec.md §4.6's
// fixed-function opcodes each carry on the command stream, used to
// reassemble Command values from the byte-wide MMIO port below. This
// collapses the real hardware's per-opcode packed command words (which
// pack several fixed one-byte opcodes per header and vary some parameter
// counts by argument) down to one opcode and a fixed count per Command,
// which spec.md §4.6 does not distinguish from the commands' semantics.
var cmdParamCount = map[CmdOp]int{
	CmdMtxMode:        1,
	CmdMtxPush:        0,
	CmdMtxPop:         1,
	CmdMtxIdentity:    0,
	CmdMtxLoad4x4:     16,
	CmdMtxMult4x4:     16,
	CmdColor:          1,
	CmdTexCoord:       2,
	CmdVtx16:          3,
	CmdPolygonAttr:    1,
	CmdTexImageParam:  1,
	CmdTexPaletteBase: 1,
	CmdBeginVtxs:      1,
	CmdSwapBuffers:    1,
}

// ReadIO8 and WriteIO8 present the geometry engine's bus-mapped register
// pair: GXSTAT (offset 0-3), whose bit 0 reports FrameReady and is
// cleared by writing a 1 to it, and GXFIFO (offset 4-7), a byte-wide
// write port that reassembles little-endian 32-bit words. The first word
// of a command names the opcode in its low byte; the following
// cmdParamCount(op) words are the command's parameters, after which the
// command is submitted and flushed into PolyRAM, matching the
// Submit-then-Flush shape WriteGeometryFIFO uses directly.
func (e *Engine) ReadIO8(offset uint32) uint8 {
	if offset == 0 {
		if e.swapped {
			return 1
		}
		return 0
	}
	return 0
}

func (e *Engine) WriteIO8(offset uint32, value uint8) {
	switch {
	case offset < 4:
		if offset == 0 && value&1 != 0 {
			e.swapped = false
		}
	case offset < 8:
		e.gxWordBuf |= uint32(value) << (8 * (offset - 4))
		e.gxWordIdx++
		if e.gxWordIdx < 4 {
			return
		}
		word := e.gxWordBuf
		e.gxWordBuf = 0
		e.gxWordIdx = 0
		e.feedGXWord(int32(word))
	}
}

// feedGXWord advances the in-flight command assembly by one 32-bit word,
// submitting and flushing the command once every parameter has arrived.
func (e *Engine) feedGXWord(word int32) {
	if !e.gxHaveOp {
		e.gxPendingOp = CmdOp(word & 0xFF)
		e.gxHaveOp = true
		e.gxWantParams = cmdParamCount[e.gxPendingOp]
		e.gxParams = e.gxParams[:0]
		if e.gxWantParams == 0 {
			e.submitGXPending()
		}
		return
	}
	e.gxParams = append(e.gxParams, word)
	if len(e.gxParams) >= e.gxWantParams {
		e.submitGXPending()
	}
}

func (e *Engine) submitGXPending() {
	params := make([]int32, len(e.gxParams))
	copy(params, e.gxParams)
	e.Submit(Command{Op: e.gxPendingOp, Params: params})
	e.Flush()
	e.gxHaveOp = false
	e.gxParams = e.gxParams[:0]
}

// visitGX walks the in-flight GXFIFO word-assembly state so a save taken
// mid-command resumes at the same byte position.
func (e *Engine) visitGX(v savestate.Visitor) {
	v.Bool(&e.gxHaveOp)
	savestate.VisitIntEnum(v, &e.gxPendingOp)
	savestate.VisitInt(v, &e.gxWantParams)

	n := len(e.gxParams)
	v.Len(&n)
	if !v.Saving() {
		e.gxParams = make([]int32, n)
	}
	for i := range e.gxParams {
		v.I32(&e.gxParams[i])
	}

	v.U32(&e.gxWordBuf)
	savestate.VisitInt(v, &e.gxWordIdx)
}
