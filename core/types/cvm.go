package types

import (
	"fmt"
	"strconv"
)

// CvmStatus is the common header of every CVM snapshot.
type CvmStatus struct {
	IsOnline bool   `json:"is_online"`
	IsPublic bool   `json:"is_public"`
	Error    string `json:"error,omitempty"`
}

type CertificateName struct {
	CommonName   string `json:"common_name"`
	Organization string `json:"organization,omitempty"`
	Country      string `json:"country,omitempty"`
	State        string `json:"state,omitempty"`
	Locality     string `json:"locality,omitempty"`
}

type Certificate struct {
	Subject            CertificateName `json:"subject"`
	Issuer             CertificateName `json:"issuer"`
	SerialNumber       string          `json:"serial_number"`
	NotBefore          string          `json:"not_before"`
	NotAfter           string          `json:"not_after"`
	Version            string          `json:"version"`
	Fingerprint        string          `json:"fingerprint"`
	SignatureAlgorithm string          `json:"signature_algorithm"`
	IsCA               bool            `json:"is_ca"`
	PositionInChain    int             `json:"position_in_chain"`
	Quote              string          `json:"quote,omitempty"`
}

type EventLog struct {
	IMR          int    `json:"imr"`
	EventType    int    `json:"event_type"`
	Digest       string `json:"digest"`
	Event        string `json:"event"`
	EventPayload string `json:"event_payload"`
}

type TcbInfo struct {
	Mrtd       string     `json:"mrtd"`
	RootfsHash string     `json:"rootfs_hash"`
	Rtmr0      string     `json:"rtmr0"`
	Rtmr1      string     `json:"rtmr1"`
	Rtmr2      string     `json:"rtmr2"`
	Rtmr3      string     `json:"rtmr3"`
	EventLog   []EventLog `json:"event_log"`
}

// NamedEvents drops event log entries without an event name.
func (t *TcbInfo) NamedEvents() []EventLog {
	if t == nil {
		return nil
	}
	out := []EventLog{}
	for _, e := range t.EventLog {
		if e.Event != "" {
			out = append(out, e)
		}
	}
	return out
}

// AttestationResponse carries the TCB measurements, certificate chain and
// compose manifest of a CVM.
type AttestationResponse struct {
	CvmStatus
	AppCertificates []Certificate `json:"app_certificates"`
	TcbInfo         *TcbInfo      `json:"tcb_info,omitempty"`
	ComposeFile     string        `json:"compose_file,omitempty"`
}

// CertificatesAt returns the certificates at a chain position (0 is the app
// certificate, 1 its issuer).
func (a *AttestationResponse) CertificatesAt(position int) []Certificate {
	out := []Certificate{}
	if a == nil {
		return out
	}
	for _, c := range a.AppCertificates {
		if c.PositionInChain == position {
			out = append(out, c)
		}
	}
	return out
}

type DiskInfo struct {
	Name       string `json:"name"`
	MountPoint string `json:"mount_point"`
	TotalSize  uint64 `json:"total_size"`
	FreeSize   uint64 `json:"free_size"`
}

type SysInfo struct {
	OSName          string     `json:"os_name"`
	OSVersion       string     `json:"os_version"`
	KernelVersion   string     `json:"kernel_version"`
	CPUModel        string     `json:"cpu_model"`
	NumCPUs         int        `json:"num_cpus"`
	TotalMemory     uint64     `json:"total_memory"`
	AvailableMemory uint64     `json:"available_memory"`
	UsedMemory      uint64     `json:"used_memory"`
	FreeMemory      uint64     `json:"free_memory"`
	TotalSwap       uint64     `json:"total_swap"`
	UsedSwap        uint64     `json:"used_swap"`
	FreeSwap        uint64     `json:"free_swap"`
	Uptime          uint64     `json:"uptime"`
	LoadavgOne      float64    `json:"loadavg_one"`
	LoadavgFive     float64    `json:"loadavg_five"`
	LoadavgFifteen  float64    `json:"loadavg_fifteen"`
	Disks           []DiskInfo `json:"disks"`
}

// MemoryUsagePercent is used/total memory, 0 when total is unknown.
func (s SysInfo) MemoryUsagePercent() float64 {
	if s.TotalMemory == 0 {
		return 0
	}
	return float64(s.UsedMemory) / float64(s.TotalMemory) * 100
}

// MainDisk is the first reported disk.
func (s SysInfo) MainDisk() *DiskInfo {
	if len(s.Disks) == 0 {
		return nil
	}
	return &s.Disks[0]
}

// DiskUsagePercent reports usage of the main disk.
func (s SysInfo) DiskUsagePercent() float64 {
	d := s.MainDisk()
	if d == nil || d.TotalSize == 0 {
		return 0
	}
	return float64(d.TotalSize-d.FreeSize) / float64(d.TotalSize) * 100
}

// FormatUptime renders seconds as "Xh Ym".
func FormatUptime(seconds uint64) string {
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}

// BytesToGB renders a byte count in GiB with two decimals.
func BytesToGB(bytes uint64) string {
	return strconv.FormatFloat(float64(bytes)/(1024*1024*1024), 'f', 2, 64)
}

type CvmStatsResponse struct {
	CvmStatus
	SysInfo SysInfo `json:"sysinfo"`
}

type Container struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Image  string `json:"image"`
	State  string `json:"state"`
	Status string `json:"status"`
}

type CvmCompositionResponse struct {
	CvmStatus
	Containers []Container `json:"containers"`
}
