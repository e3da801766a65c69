package main

// Physical memory map (spec.md §6). Addresses are byte offsets into the
// shared physical address space; PHYSMEM_MAX is the last valid byte.
const (
	PhysMemMax = 0x07FFFFFF

	PS2Stream = 0x07FE5800
	UartTX    = 0x07FE5802
	UartRX    = 0x07FE5803
	PIT       = 0x07FE5804

	SD0DMA = 0x07FE5810
	SD1DMA = 0x07FE5828

	TileMapStart = 0x07FE8000
	TileMapSize  = 32 * 1024

	SpriteRegs   = 0x07FE5B00
	ScrollReg    = 0x07FE5B40
	ScaleReg     = 0x07FE5B44
	VGAMode      = 0x07FE5B48
	VGAStatus    = 0x07FE5B4A
	VGAFrame     = 0x07FE5B4B
	ClockDivider = 0x07FE5B4C

	SpriteMapStart = 0x07FF0000
	SpriteMapSize  = 32 * 1024

	PixelFBStart = 0x07FC0000
	PixelFBWidth = 320
	PixelFBHeigh = 240
	PixelFBSize  = PixelFBWidth * PixelFBHeigh * 2

	TileFBCols = 80
	TileFBRows = 60
	TileFBSize = TileFBCols * TileFBRows * 2
	// TileFBStart sits directly below the pixel framebuffer, 4KB-aligned.
	TileFBStart = (PixelFBStart - TileFBSize) &^ 0xFFF
)

// SD DMA register block offsets (spec.md §6), relative to SD0DMA/SD1DMA.
const (
	SDRegMemAddr = 0x00
	SDRegBlock   = 0x04
	SDRegLen     = 0x08
	SDRegCtrl    = 0x0C
	SDRegStatus  = 0x10
	SDRegErr     = 0x14
	SDRegBlockSz = 24
)

const (
	SDCtrlStart       = 1 << 0
	SDCtrlDirRAMToSD  = 1 << 1
	SDCtrlIRQEnable   = 1 << 2

	SDStatusBusy = 1 << 0
	SDStatusDone = 1 << 1
	SDStatusErr  = 1 << 2
)

const (
	SDErrNone   = 0
	SDErrBusy   = 1
	SDErrZeroLen = 2
)

// SD block size in bytes, used to translate SD_BLOCK into a byte offset
// into a loaded disk image.
const SDBlockSize = 512

// Interrupt controller bit positions (spec.md §4.3).
const (
	IntBitTimer = 0
	IntBitKB    = 1
	IntBitUART  = 2
	IntBitSD    = 3
	IntBitVGA   = 4
	IntBitIPI   = 5
	IntBitSD2   = 6
)

// Control register indices (spec.md §6).
const (
	CRPSR = 0
	CRPID = 1
	CRISR = 2
	CRIMR = 3
	CREPC = 4
	CRFLG = 5
	CRCDV = 6
	CRTLB = 7
	CRKSP = 8
	CRCID = 9
	CRMBI = 10
	CRMBO = 11

	NumControlRegs = 12
	NumGeneralRegs = 32
)

// FLG bits (spec.md §4.4.3).
const (
	FlagCarry    = 1 << 0
	FlagZero     = 1 << 1
	FlagSign     = 1 << 2
	FlagOverflow = 1 << 3
)

// IMR global-enable bit.
const IMREnableBit = 1 << 31

// Exception vector indices (word index into the vector table; physical
// address is index*4, spec.md §4.4.6).
const (
	VecSyscallExit      = 0x01
	VecIllegalInstr     = 0x80
	VecPrivInstr        = 0x81
	VecUserTLBMiss      = 0x82
	VecKernelTLBMiss    = 0x83
	VecInterruptLow     = 0xF0
	VecInterruptHigh    = 0xFF
)

// Opcode classes (top 5 bits of a 32-bit instruction, spec.md §4.4.2).
const (
	OpALUReg      = 0
	OpALUImm      = 1
	OpLUI         = 2
	OpLoad32Abs   = 3
	OpLoad32PC    = 4
	OpLoad32ImmPC = 5
	OpLoad16Abs   = 6
	OpLoad16PC    = 7
	OpLoad16ImmPC = 8
	OpLoad8Abs    = 9
	OpLoad8PC     = 10
	OpLoad8ImmPC  = 11
	OpBranchImm   = 12
	OpBranchAbs   = 13
	OpBranchRel   = 14
	OpSyscall     = 15
	OpFaddAbs     = 16
	OpFaddPC      = 17
	OpFaddImmPC   = 18
	OpSwapAbs     = 19
	OpSwapPC      = 20
	OpSwapImmPC   = 21
	OpKernel      = 31
)

// Store-bit set on load/store instruction words (spec.md §4.4.4); this
// repository's own encoding, since the assembler is an out-of-scope
// collaborator: store is indicated by the low bit of the instruction.
const MemStoreBit = 1 << 0

// ALU operation codes (spec.md §4.4.3). Ordering follows the list in the
// spec verbatim.
const (
	AluAND = iota
	AluNAND
	AluOR
	AluNOR
	AluXOR
	AluXNOR
	AluNOT
	AluLSL
	AluLSR
	AluASR
	AluROTL
	AluROTR
	AluLSLC
	AluLSRC
	AluADD
	AluADDC
	AluSUB
	AluSUBB
	AluSXTB
	AluSXTD
	AluTNCB
	AluTNCD
)

// Branch condition codes (spec.md §4.4.5).
const (
	CondBR = iota
	CondBZ
	CondBNZ
	CondBS
	CondBNS
	CondBC
	CondBNC
	CondBO
	CondBNO
	CondBPS
	CondBNPS
	CondBG
	CondBGE
	CondBL
	CondBLE
	CondBA
	CondBAE
	CondBB
	CondBBE
)

// Kernel sub-op codes (opcode 31, spec.md §4.4.8).
const (
	KSubTLB = iota
	KSubCrmv
	KSubMode
	KSubRFE
	KSubIPI
)

// TLB sub-ops.
const (
	TLBOpRead = iota
	TLBOpWrite
	TLBOpInvalidate
	TLBOpClear
)

// crmv variants.
const (
	CrmvCRtoR = iota
	CrmvRtoCR
	CrmvCRtoCR
	CrmvRtoR
)

// mode sub-ops.
const (
	ModeRun = iota
	ModeSleep
	ModeHalt
)

// TLB entry payload layout (spec.md §6): bit 0 R, 1 W, 2 X, 3 U, 4 G;
// upper 20 bits PPN.
const (
	TLBFlagR = 1 << 0
	TLBFlagW = 1 << 1
	TLBFlagX = 1 << 2
	TLBFlagU = 1 << 3
	TLBFlagG = 1 << 4

	TLBCapacity = 32
	PageBits    = 12
	PageSize    = 1 << PageBits
	PageMask    = PageSize - 1
)
