package pac

import (
	"net"
	"os"
	"regexp"
	"strings"

	"github.com/robertkrimen/otto"
	"go.uber.org/zap"
)

// installBuiltins defines the standard PAC helper functions on vm.
func (e *Evaluator) installBuiltins(vm *otto.Otto) error {
	builtins := map[string]func(otto.FunctionCall) otto.Value{
		"isPlainHostName": func(call otto.FunctionCall) otto.Value {
			return boolValue(!strings.Contains(call.Argument(0).String(), "."))
		},
		"dnsDomainIs": func(call otto.FunctionCall) otto.Value {
			host, domain := call.Argument(0).String(), call.Argument(1).String()
			return boolValue(strings.HasSuffix(strings.ToLower(host), strings.ToLower(domain)))
		},
		"localHostOrDomainIs": func(call otto.FunctionCall) otto.Value {
			host, hostdom := call.Argument(0).String(), call.Argument(1).String()
			if host == hostdom {
				return otto.TrueValue()
			}
			return boolValue(!strings.Contains(host, ".") && strings.HasPrefix(hostdom, host+"."))
		},
		"isResolvable": func(call otto.FunctionCall) otto.Value {
			return boolValue(e.resolveIPv4(call.Argument(0).String()) != nil)
		},
		"isInNet": func(call otto.FunctionCall) otto.Value {
			return boolValue(e.isInNet(call.Argument(0).String(), call.Argument(1).String(), call.Argument(2).String()))
		},
		"dnsResolve": func(call otto.FunctionCall) otto.Value {
			ip := e.resolveIPv4(call.Argument(0).String())
			if ip == nil {
				return otto.NullValue()
			}
			return stringValue(vm, ip.String())
		},
		"myIpAddress": func(otto.FunctionCall) otto.Value {
			return stringValue(vm, e.myIPAddress())
		},
		"dnsDomainLevels": func(call otto.FunctionCall) otto.Value {
			v, _ := vm.ToValue(strings.Count(call.Argument(0).String(), "."))
			return v
		},
		"shExpMatch": func(call otto.FunctionCall) otto.Value {
			return boolValue(shExpMatch(call.Argument(0).String(), call.Argument(1).String()))
		},
		"alert": func(call otto.FunctionCall) otto.Value {
			e.logger.Debug("PAC alert", zap.String("message", call.Argument(0).String()))
			return otto.UndefinedValue()
		},
	}

	for name, fn := range builtins {
		if err := vm.Set(name, fn); err != nil {
			return err
		}
	}
	return nil
}

func boolValue(b bool) otto.Value {
	if b {
		return otto.TrueValue()
	}
	return otto.FalseValue()
}

func stringValue(vm *otto.Otto, s string) otto.Value {
	v, err := vm.ToValue(s)
	if err != nil {
		return otto.UndefinedValue()
	}
	return v
}

// resolveIPv4 returns host itself when it is an IPv4 literal, otherwise
// its first IPv4 address, or nil.
func (e *Evaluator) resolveIPv4(host string) net.IP {
	if ip := net.ParseIP(host); ip != nil {
		return ip.To4()
	}
	ips, err := e.resolver(host)
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4
		}
	}
	return nil
}

func (e *Evaluator) isInNet(host, pattern, mask string) bool {
	ip := e.resolveIPv4(host)
	patternIP := net.ParseIP(pattern).To4()
	maskIP := net.ParseIP(mask).To4()
	if ip == nil || patternIP == nil || maskIP == nil {
		return false
	}
	m := net.IPMask(maskIP)
	return ip.Mask(m).Equal(patternIP.Mask(m))
}

func (e *Evaluator) myIPAddress() string {
	if name, err := os.Hostname(); err == nil {
		if ip := e.resolveIPv4(name); ip != nil && !ip.IsLoopback() {
			return ip.String()
		}
	}
	return "127.0.0.1"
}

// shExpMatch matches str against a shell expression where * matches any
// run of characters and ? a single one.
func shExpMatch(str, expr string) bool {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range expr {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(str)
}
