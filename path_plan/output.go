package path_plan

import (
	"net"
	"strconv"
	"strings"
)

// OutputSender sends committed paths over UDP as CSV.
type OutputSender struct {
	conn *net.UDPConn
}

// NewOutputSender creates a UDP sender for the given address. An empty
// address yields a sender that drops everything.
func NewOutputSender(addr string) (*OutputSender, error) {
	if addr == "" {
		return &OutputSender{}, nil
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, err
	}
	return &OutputSender{conn: conn}, nil
}

// Close releases the UDP socket.
func (s *OutputSender) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Send writes the path of out as one datagram.
func (s *OutputSender) Send(out Output) {
	if s == nil || s.conn == nil {
		return
	}
	_, _ = s.conn.Write([]byte(formatPath(out)))
}

// formatPath encodes "id,state,clear,n" followed by one ";x,y,rot" group per
// waypoint. Positions are millimeters, rotations radians.
func formatPath(out Output) string {
	var b strings.Builder
	b.WriteString(out.Path.ID.String())
	b.WriteByte(',')
	b.WriteString(out.State.String())
	b.WriteByte(',')
	b.WriteString(strconv.FormatBool(out.Path.Clear))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(len(out.Path.WayPoints)))
	for _, wp := range out.Path.WayPoints {
		b.WriteByte(';')
		b.WriteString(strconv.FormatFloat(wp.Translation.X, 'f', 1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(wp.Translation.Y, 'f', 1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(wp.Rotation, 'f', 4, 64))
	}
	return b.String()
}
