// Copyright (C) 2025 The edgeflow authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package internal

import (
	"runtime"
	"sync"
)

// Pools of constant sized pixel arrays, keyed by size, to keep steady state
// frame processing free of large allocations. Frames of a given video stream
// all share one size, so the map stays tiny.

var poolFloat32=struct{
	sync.RWMutex
	m map[int]*sync.Pool
}{m: make(map[int]*sync.Pool)}

var poolByte=struct{
	sync.RWMutex
	m map[int]*sync.Pool
}{m: make(map[int]*sync.Pool)}

// Clears all memory pools and triggers garbage collection
func ClearPools() {
	poolFloat32.Lock()
	poolFloat32.m=make(map[int]*sync.Pool)
	poolFloat32.Unlock()

	poolByte.Lock()
	poolByte.m=make(map[int]*sync.Pool)
	poolByte.Unlock()

	runtime.GC()
}

// Returns a pool for []float32 of the given size, creating it if necessary
func getSizedPoolFloat32(size int) *sync.Pool {
	poolFloat32.RLock()
	pool:=poolFloat32.m[size]
	poolFloat32.RUnlock()
	if pool==nil {
		pool=&sync.Pool{
			New: func() interface{} {
				return make([]float32, size)
			},
		}
		poolFloat32.Lock()
		poolFloat32.m[size]=pool
		poolFloat32.Unlock()
	}
	return pool
}

// Retrieves a float32 array of the given size from the pool
func GetArrayOfFloat32FromPool(size int) []float32 {
	pool:=getSizedPoolFloat32(size)
	return pool.Get().([]float32)
}

// Returns a float32 array to the pool
func PutArrayOfFloat32IntoPool(arr []float32) {
	pool:=getSizedPoolFloat32(cap(arr))
	pool.Put(arr[:cap(arr)])
}

// Returns a pool for []byte of the given size, creating it if necessary
func getSizedPoolByte(size int) *sync.Pool {
	poolByte.RLock()
	pool:=poolByte.m[size]
	poolByte.RUnlock()
	if pool==nil {
		pool=&sync.Pool{
			New: func() interface{} {
				return make([]byte, size)
			},
		}
		poolByte.Lock()
		poolByte.m[size]=pool
		poolByte.Unlock()
	}
	return pool
}

// Retrieves a byte array of the given size from the pool
func GetArrayOfByteFromPool(size int) []byte {
	pool:=getSizedPoolByte(size)
	return pool.Get().([]byte)
}

// Returns a byte array to the pool
func PutArrayOfByteIntoPool(arr []byte) {
	pool:=getSizedPoolByte(cap(arr))
	pool.Put(arr[:cap(arr)])
}
