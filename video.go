package main

// Video implements the graphics memory subsystem from spec.md §3/§6: a
// tile framebuffer, a 16-bit pixel framebuffer, a tile pattern map, a
// sprite map with per-sprite position/scale registers, and the VGA
// scroll/scale/mode/status/frame scalar registers. Byte layout for the
// tile/pixel/sprite regions is grounded on original_source/src/memory.rs's
// FrameBuffer/TileMap/SpriteMap/Sprite structs; the MMIO dispatch shape
// for the scalar register block follows the teacher's HandleRead/
// HandleWrite idiom (video_chip.go), generalized from its bitmap-only
// model to Dioptase's tile+sprite model.
//
// TileMap, the tile/pixel framebuffers and the sprite map are plain bus
// memory: the CPU stores into them directly and Video reads the same
// bytes back. Only the scalar register block is an MMIODevice, since
// those addresses need read-only enforcement and vblank-driven mutation
// that software cannot perform directly.
type Video struct {
	bus *Bus

	scroll uint32
	scale  uint32
	mode   uint32
	status uint32
	frame  uint32
}

const (
	vgaStatusVBlank = 1 << 0
)

// NewVideo creates the video subsystem and registers its scalar register
// block with the bus. The tile/pixel/sprite memory regions need no
// registration — they are addressed as ordinary bus memory.
func NewVideo(bus *Bus) *Video {
	v := &Video{bus: bus}
	bus.RegisterDevice(v)
	bus.MarkReadOnly(VGAStatus, VGAStatus+1)
	bus.MarkReadOnly(VGAFrame, VGAFrame)
	return v
}

func (v *Video) Contains(addr uint32) bool {
	switch {
	case addr >= ScrollReg && addr < ScrollReg+4:
		return true
	case addr >= ScaleReg && addr < ScaleReg+4:
		return true
	case addr == VGAMode:
		return true
	case addr == VGAStatus:
		return true
	case addr == VGAFrame:
		return true
	}
	return false
}

func (v *Video) ReadByte(addr uint32) uint8 {
	switch {
	case addr >= ScrollReg && addr < ScrollReg+4:
		return byteOf(v.scroll, addr-ScrollReg)
	case addr >= ScaleReg && addr < ScaleReg+4:
		return byteOf(v.scale, addr-ScaleReg)
	case addr == VGAMode:
		return uint8(v.mode)
	case addr == VGAStatus:
		return uint8(v.status)
	case addr == VGAFrame:
		return uint8(v.frame)
	}
	return 0
}

func (v *Video) WriteByte(addr uint32, b uint8) {
	switch {
	case addr >= ScrollReg && addr < ScrollReg+4:
		v.scroll = setByte(v.scroll, addr-ScrollReg, b)
	case addr >= ScaleReg && addr < ScaleReg+4:
		v.scale = setByte(v.scale, addr-ScaleReg, b)
	case addr == VGAMode:
		v.mode = uint32(b)
	}
}

// Vblank is called once per frame by DrivePresent: it sets the vblank status
// bit, bumps the frame counter, and raises the VGA interrupt bit on the
// bus so the tick driver's interrupt poll observes it.
func (v *Video) Vblank() {
	v.status |= vgaStatusVBlank
	v.frame++
	v.bus.RaiseVGA()
}

// AckVblank clears the vblank status bit. Neither in-repo FrameSink
// calls it.
func (v *Video) AckVblank() { v.status &^= vgaStatusVBlank }

// TilePatternByte reads one byte of tile pattern data for tile index t.
func (v *Video) TilePatternByte(t int, offset int) byte {
	return v.bus.Read8(TileMapStart + uint32(t)*128 + uint32(offset))
}

// TileFBEntry returns (tileIndex, color) for tile-framebuffer cell
// (col, row).
func (v *Video) TileFBEntry(col, row int) (tileIndex, color uint8) {
	addr := TileFBStart + uint32(row*TileFBCols+col)*2
	return v.bus.Read8(addr), v.bus.Read8(addr + 1)
}

// PixelAt returns the raw 16-bit pixel value at (x, y) in the pixel
// framebuffer.
func (v *Video) PixelAt(x, y int) uint16 {
	addr := PixelFBStart + uint32(y*PixelFBWidth+x)*2
	return v.bus.Read16(addr)
}

// SpritePosition returns a sprite's (x, y) from the 16-sprite, 4-byte
// position register block.
func (v *Video) SpritePosition(sprite int) (x, y int16) {
	addr := SpriteRegs + uint32(sprite)*4
	xlo := v.bus.Read8(addr)
	xhi := v.bus.Read8(addr + 1)
	ylo := v.bus.Read8(addr + 2)
	yhi := v.bus.Read8(addr + 3)
	return int16(uint16(xlo) | uint16(xhi)<<8), int16(uint16(ylo) | uint16(yhi)<<8)
}

// SpritePatternByte reads one byte of sprite pattern data; each sprite
// occupies 2048 bytes of the sprite map.
func (v *Video) SpritePatternByte(sprite int, offset int) byte {
	return v.bus.Read8(SpriteMapStart + uint32(sprite)*2048 + uint32(offset))
}
