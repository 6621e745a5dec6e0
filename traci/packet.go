package traci

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// TraCI报文编解码
// 说明：TraCI是长度前缀的大端二进制协议。报文 = [int32总长(含自身)] + 若干命令；
// 命令 = [ubyte长度][命令号][内容]，长度超过255时为[0][int32长度][命令号][内容]

// composer 命令内容构造器
type composer struct {
	buf bytes.Buffer
}

func newComposer() *composer {
	return &composer{}
}

func (c *composer) writeUByte(b byte) {
	c.buf.WriteByte(b)
}

func (c *composer) writeInt(v int32) {
	binary.Write(&c.buf, binary.BigEndian, v)
}

func (c *composer) writeDouble(v float64) {
	binary.Write(&c.buf, binary.BigEndian, math.Float64bits(v))
}

func (c *composer) writeString(s string) {
	c.writeInt(int32(len(s)))
	c.buf.WriteString(s)
}

func (c *composer) bytes() []byte {
	return c.buf.Bytes()
}

// packCommand 将命令内容打包为带长度前缀的命令字节串
func packCommand(id byte, content []byte) []byte {
	// 短格式：长度(1) + 命令号(1) + 内容
	if n := 2 + len(content); n <= 255 {
		out := make([]byte, 0, n)
		out = append(out, byte(n), id)
		return append(out, content...)
	}
	// 扩展格式：0(1) + 长度(4) + 命令号(1) + 内容
	n := 6 + len(content)
	out := make([]byte, 0, n)
	out = append(out, 0)
	out = binary.BigEndian.AppendUint32(out, uint32(n))
	out = append(out, id)
	return append(out, content...)
}

// packMessage 将若干命令打包为完整报文
func packMessage(commands ...[]byte) []byte {
	n := 4
	for _, c := range commands {
		n += len(c)
	}
	out := make([]byte, 0, n)
	out = binary.BigEndian.AppendUint32(out, uint32(n))
	for _, c := range commands {
		out = append(out, c...)
	}
	return out
}

// packet 响应报文读取器（不含开头的4字节总长）
type packet struct {
	data []byte
	pos  int
}

func (p *packet) remaining() int {
	return len(p.data) - p.pos
}

func (p *packet) readUByte() (byte, error) {
	if p.remaining() < 1 {
		return 0, fmt.Errorf("packet underflow at %d", p.pos)
	}
	b := p.data[p.pos]
	p.pos++
	return b, nil
}

func (p *packet) readInt() (int32, error) {
	if p.remaining() < 4 {
		return 0, fmt.Errorf("packet underflow at %d", p.pos)
	}
	v := int32(binary.BigEndian.Uint32(p.data[p.pos:]))
	p.pos += 4
	return v, nil
}

func (p *packet) readDouble() (float64, error) {
	if p.remaining() < 8 {
		return 0, fmt.Errorf("packet underflow at %d", p.pos)
	}
	v := math.Float64frombits(binary.BigEndian.Uint64(p.data[p.pos:]))
	p.pos += 8
	return v, nil
}

func (p *packet) readString() (string, error) {
	n, err := p.readInt()
	if err != nil {
		return "", err
	}
	if n < 0 || p.remaining() < int(n) {
		return "", fmt.Errorf("bad string length %d at %d", n, p.pos)
	}
	s := string(p.data[p.pos : p.pos+int(n)])
	p.pos += int(n)
	return s, nil
}

func (p *packet) readStringList() ([]string, error) {
	n, err := p.readInt()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		s, err := p.readString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// enterCommand 读取命令头（处理扩展长度），返回命令号
// 说明：读取后游标位于命令内容起始处
func (p *packet) enterCommand() (byte, error) {
	n, err := p.readUByte()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		if _, err := p.readInt(); err != nil {
			return 0, err
		}
	}
	return p.readUByte()
}

// expectType 校验下一个数据类型标记
func (p *packet) expectType(t byte) error {
	got, err := p.readUByte()
	if err != nil {
		return err
	}
	if got != t {
		return fmt.Errorf("unexpected data type 0x%02x (want 0x%02x)", got, t)
	}
	return nil
}
