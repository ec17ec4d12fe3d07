package detections

import "strings"

// PrimarySourceIP reduces a detection's evidence to one representative
// network-origin address: the non-empty trimmed src_ip with the
// highest occurrence count. Ties go to the address encountered first
// in input order, so the result is deterministic for a fixed ordering.
// Returns "" when no event carries an address; that is a valid
// no-address outcome, not an error.
func PrimarySourceIP(events []EvidenceEvent) string {
	counts := make(map[string]int, len(events))
	var order []string
	for _, ev := range events {
		ip := strings.TrimSpace(ev.SrcIP)
		if ip == "" {
			continue
		}
		if counts[ip] == 0 {
			order = append(order, ip)
		}
		counts[ip]++
	}

	best := ""
	bestCount := 0
	for _, ip := range order {
		if counts[ip] > bestCount {
			best = ip
			bestCount = counts[ip]
		}
	}
	return best
}

// PrimaryIP resolves the detection's primary address: the server's
// explicit value when present, else the evidence aggregation.
func (d *Detail) PrimaryIP() string {
	if d.SourceIP != "" {
		return d.SourceIP
	}
	return PrimarySourceIP(d.EvidenceEvents)
}
