// SUMO仿真器网关：通过TraCI协议（TCP）驱动外部SUMO进程
package traci

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
)

const (
	dialRetryCount    = 30                     // 连接重试次数
	dialRetryInterval = 500 * time.Millisecond // 连接重试间隔
)

// Client TraCI客户端（实现entity.IGateway）
// 功能：启动SUMO进程、维护TCP连接、编解码TraCI请求与响应
// 说明：一条连接串行处理请求/响应对，内部用互斥锁保证并发调用安全；
// 连接断开后所有操作返回包装了entity.ErrConnectionLost的错误
type Client struct {
	mtx  sync.Mutex
	port int

	conn   net.Conn
	proc   *exec.Cmd
	closed bool
}

// NewClient 创建TraCI客户端
// 参数：port-SUMO的TraCI监听端口
func NewClient(port int) *Client {
	return &Client{port: port, closed: true}
}

// Start 启动仿真器进程并建立连接
// 功能：以--remote-port追加到给定命令行启动SUMO，重试连接直至就绪，
// 并完成版本握手
// 参数：args-完整SUMO命令行，首项为可执行文件
func (c *Client) Start(args []string) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.conn != nil {
		return fmt.Errorf("gateway already started")
	}
	if len(args) == 0 {
		return fmt.Errorf("empty simulator command")
	}

	full := append(append([]string{}, args[1:]...), "--remote-port", strconv.Itoa(c.port))
	proc := exec.Command(args[0], full...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("start simulator: %w", err)
	}

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(c.port))
	conn, err := dialWithRetry(addr, dialRetryCount, dialRetryInterval)
	if err != nil {
		proc.Process.Kill()
		proc.Wait()
		return fmt.Errorf("connect simulator: %w", err)
	}

	c.conn = conn
	c.proc = proc
	c.closed = false

	// 版本握手
	p, err := c.requestLocked(cmdGetVersion, nil)
	if err != nil {
		c.teardownLocked()
		return fmt.Errorf("traci handshake: %w", err)
	}
	if _, err := p.enterCommand(); err == nil {
		if api, err := p.readInt(); err == nil {
			if version, err := p.readString(); err == nil {
				log.Infof("connected to %s (TraCI API %d)", version, api)
			}
		}
	}
	return nil
}

// dialWithRetry 重试建立TCP连接直至仿真器就绪
func dialWithRetry(addr string, retryCount int, interval time.Duration) (net.Conn, error) {
	var lastErr error
	for range retryCount {
		conn, err := net.DialTimeout("tcp", addr, interval)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		time.Sleep(interval)
	}
	return nil, fmt.Errorf("simulator `%v` did not become ready after %d retries: %w", addr, retryCount, lastErr)
}

// Tick 推进仿真一步
func (c *Client) Tick() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	m := newComposer()
	m.writeDouble(0) // 目标时间0：推进单步
	_, err := c.requestLocked(cmdSimStep, m.bytes())
	return err
}

// Connected 连接是否存活
func (c *Client) Connected() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.conn != nil
}

// Close 关闭连接与仿真器进程
// 说明：幂等，可在失败路径上重复调用
func (c *Client) Close() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.closed && c.conn == nil {
		return nil
	}
	if c.conn != nil {
		// 尽力通知仿真器退出，失败则直接断开
		msg := packMessage(packCommand(cmdClose, nil))
		c.conn.SetDeadline(time.Now().Add(time.Second))
		c.conn.Write(msg)
	}
	c.teardownLocked()
	return nil
}

// teardownLocked 释放连接与进程（须持锁调用）
func (c *Client) teardownLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	if c.proc != nil {
		c.proc.Process.Kill()
		c.proc.Wait()
		c.proc = nil
	}
	c.closed = true
}

// lostLocked 标记连接丢失并返回致命错误（须持锁调用）
func (c *Client) lostLocked(err error) error {
	log.Errorf("traci connection lost: %v", err)
	c.teardownLocked()
	return fmt.Errorf("traci: %v: %w", err, entity.ErrConnectionLost)
}

// requestLocked 发送单条命令并解析状态响应（须持锁调用）
// 返回：游标位于状态响应之后的报文读取器
// 说明：IO失败视为连接丢失（致命）；仿真器返回的失败状态是普通错误
// （单次查询/命令失败，调用方降级处理）
func (c *Client) requestLocked(cmd byte, content []byte) (*packet, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("gateway not connected: %w", entity.ErrConnectionLost)
	}
	msg := packMessage(packCommand(cmd, content))
	if _, err := c.conn.Write(msg); err != nil {
		return nil, c.lostLocked(err)
	}

	var head [4]byte
	if _, err := io.ReadFull(c.conn, head[:]); err != nil {
		return nil, c.lostLocked(err)
	}
	total := binary.BigEndian.Uint32(head[:])
	if total < 4 {
		return nil, c.lostLocked(fmt.Errorf("bad message length %d", total))
	}
	body := make([]byte, total-4)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return nil, c.lostLocked(err)
	}

	p := &packet{data: body}
	id, err := p.enterCommand()
	if err != nil {
		return nil, c.lostLocked(err)
	}
	if id != cmd {
		return nil, c.lostLocked(fmt.Errorf("status for command 0x%02x, want 0x%02x", id, cmd))
	}
	result, err := p.readUByte()
	if err != nil {
		return nil, c.lostLocked(err)
	}
	desc, err := p.readString()
	if err != nil {
		return nil, c.lostLocked(err)
	}
	if result != statusOK {
		return nil, fmt.Errorf("command 0x%02x failed: %s", cmd, desc)
	}
	return p, nil
}

// getLocked 发送取值命令并定位到响应值（须持锁调用）
// 返回：游标位于数据类型标记处的报文读取器
func (c *Client) getLocked(cmd, respCmd, variable byte, objID string) (*packet, error) {
	m := newComposer()
	m.writeUByte(variable)
	m.writeString(objID)
	p, err := c.requestLocked(cmd, m.bytes())
	if err != nil {
		return nil, err
	}
	id, err := p.enterCommand()
	if err != nil {
		return nil, c.lostLocked(err)
	}
	if id != respCmd {
		return nil, c.lostLocked(fmt.Errorf("response command 0x%02x, want 0x%02x", id, respCmd))
	}
	if _, err := p.readUByte(); err != nil { // 变量号回显
		return nil, c.lostLocked(err)
	}
	if _, err := p.readString(); err != nil { // 对象ID回显
		return nil, c.lostLocked(err)
	}
	return p, nil
}

// getInt 取整型变量
func (c *Client) getInt(cmd, respCmd, variable byte, objID string) (int, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	p, err := c.getLocked(cmd, respCmd, variable, objID)
	if err != nil {
		return 0, err
	}
	if err := p.expectType(typeInteger); err != nil {
		return 0, c.lostLocked(err)
	}
	v, err := p.readInt()
	if err != nil {
		return 0, c.lostLocked(err)
	}
	return int(v), nil
}

// getDouble 取浮点变量
func (c *Client) getDouble(cmd, respCmd, variable byte, objID string) (float64, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	p, err := c.getLocked(cmd, respCmd, variable, objID)
	if err != nil {
		return 0, err
	}
	if err := p.expectType(typeDouble); err != nil {
		return 0, c.lostLocked(err)
	}
	v, err := p.readDouble()
	if err != nil {
		return 0, c.lostLocked(err)
	}
	return v, nil
}

// getString 取字符串变量
func (c *Client) getString(cmd, respCmd, variable byte, objID string) (string, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	p, err := c.getLocked(cmd, respCmd, variable, objID)
	if err != nil {
		return "", err
	}
	if err := p.expectType(typeString); err != nil {
		return "", c.lostLocked(err)
	}
	v, err := p.readString()
	if err != nil {
		return "", c.lostLocked(err)
	}
	return v, nil
}

// getStringList 取字符串列表变量
func (c *Client) getStringList(cmd, respCmd, variable byte, objID string) ([]string, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	p, err := c.getLocked(cmd, respCmd, variable, objID)
	if err != nil {
		return nil, err
	}
	if err := p.expectType(typeStringList); err != nil {
		return nil, c.lostLocked(err)
	}
	v, err := p.readStringList()
	if err != nil {
		return nil, c.lostLocked(err)
	}
	return v, nil
}
