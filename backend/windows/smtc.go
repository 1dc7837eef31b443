//go:build windows

package windows

/*
#cgo CFLAGS: -I .
void btn_callback_cgo(int in);
void seek_callback_cgo(int in);
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

type (
	SMTCPlaybackState int
	SMTCButton        int
)

const (
	// constants from smtc.h in github.com/supersonic-app/smtc-dll
	SMTCPlaybackStateStopped SMTCPlaybackState = 2
	SMTCPlaybackStatePlaying SMTCPlaybackState = 3
	SMTCPlaybackStatePaused  SMTCPlaybackState = 4

	SMTCButtonPlay     SMTCButton = 0
	SMTCButtonPause    SMTCButton = 1
	SMTCButtonStop     SMTCButton = 2
	SMTCButtonPrevious SMTCButton = 4
	SMTCButtonNext     SMTCButton = 5
)

type SMTC struct {
	dll *windows.DLL

	onButtonPressed func(SMTCButton)
	onSeek          func(int)
}

var smtcInstance *SMTC

var ErrSMTCUnsupported = errors.New("SMTC is not supported on Windows versions < 10")

var procGetConsoleWindow = windows.NewLazySystemDLL("kernel32.dll").NewProc("GetConsoleWindow")

// ConsoleWindow returns the handle of the console window the bridge runs
// in, or 0 when it has none (e.g. started detached).
func ConsoleWindow() uintptr {
	if err := procGetConsoleWindow.Find(); err != nil {
		return 0
	}
	hwnd, _, _ := procGetConsoleWindow.Call()
	return hwnd
}

func InitSMTCForWindow(hwnd uintptr) (*SMTC, error) {
	if maj, _, _ := windows.RtlGetNtVersionNumbers(); maj < 10 {
		return nil, ErrSMTCUnsupported
	}
	if hwnd == 0 {
		return nil, errors.New("SMTC requires a window handle")
	}

	dll, err := windows.LoadDLL("smtc.dll")
	if err != nil {
		return nil, err
	}

	proc, err := dll.FindProc("InitializeForWindow")
	if err != nil {
		dll.Release()
		return nil, err
	}

	hr, _, _ := proc.Call(hwnd, uintptr(unsafe.Pointer(C.btn_callback_cgo)), uintptr(unsafe.Pointer(C.seek_callback_cgo)))
	if int32(hr) < 0 {
		dll.Release()
		return nil, fmt.Errorf("InitializeForWindow failed with HRESULT=%d", int32(hr))
	}

	smtcInstance = &SMTC{dll: dll}
	return smtcInstance, nil
}

func (s *SMTC) OnButtonPressed(f func(SMTCButton)) {
	s.onButtonPressed = f
}

func (s *SMTC) OnSeek(f func(millis int)) {
	s.onSeek = f
}

func (s *SMTC) Shutdown() {
	if s.dll == nil {
		return
	}
	proc, err := s.dll.FindProc("Destroy")
	if err == nil {
		proc.Call()
	}

	s.dll.Release()
	s.dll = nil
	smtcInstance = nil
}

func (s *SMTC) UpdatePlaybackState(state SMTCPlaybackState) error {
	return s.call("SetPlaybackState", uintptr(state))
}

func (s *SMTC) UpdateMetadata(title, artist string) error {
	utfTitle, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	utfArtist, err := windows.UTF16PtrFromString(artist)
	if err != nil {
		return err
	}
	return s.call("SetMetadata", uintptr(unsafe.Pointer(utfTitle)), uintptr(unsafe.Pointer(utfArtist)))
}

func (s *SMTC) UpdatePosition(positionMillis, durationMillis int) error {
	return s.call("SetPosition", uintptr(positionMillis), uintptr(durationMillis))
}

func (s *SMTC) SetThumbnail(filepath string) error {
	utfPath, err := windows.UTF16PtrFromString(filepath)
	if err != nil {
		return err
	}
	return s.call("SetThumbnailPath", uintptr(unsafe.Pointer(utfPath)))
}

func (s *SMTC) SetEnabled(enabled bool) error {
	var arg uintptr = 0
	if enabled {
		arg = 1
	}
	return s.call("SetEnabled", arg)
}

func (s *SMTC) call(name string, args ...uintptr) error {
	if s.dll == nil {
		return errors.New("SMTC DLL not available")
	}
	proc, err := s.dll.FindProc(name)
	if err != nil {
		return err
	}
	if hr, _, _ := proc.Call(args...); int32(hr) < 0 {
		return fmt.Errorf("%s failed with HRESULT=%d", name, int32(hr))
	}
	return nil
}

//export btnCallback
func btnCallback(in int) {
	if smtcInstance != nil && smtcInstance.onButtonPressed != nil {
		smtcInstance.onButtonPressed(SMTCButton(in))
	}
}

//export seekCallback
func seekCallback(millis int) {
	if smtcInstance != nil && smtcInstance.onSeek != nil {
		smtcInstance.onSeek(millis)
	}
}
